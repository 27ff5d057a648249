package ext4

type FileType uint16

const (
	FileTypeUnknown FileType = iota
	FileTypeRegular
	FileTypeDir
	FileTypeCharDev
	FileTypeBlockDev
	FileTypeFifo
	FileTypeSocket
	FileTypeSymlink
)

// fileTypes is indexed by FileType.
var fileTypes = [...]struct {
	nibble uint16
	name   string
	symbol byte
}{
	FileTypeUnknown:  {name: "Unknown", symbol: '?'},
	FileTypeRegular:  {nibble: 0x8, name: "Regular", symbol: '-'},
	FileTypeDir:      {nibble: 0x4, name: "Dir", symbol: 'd'},
	FileTypeCharDev:  {nibble: 0x2, name: "CharDev", symbol: 'c'},
	FileTypeBlockDev: {nibble: 0x6, name: "BlockDev", symbol: 'b'},
	FileTypeFifo:     {nibble: 0x1, name: "Fifo", symbol: 'p'},
	FileTypeSocket:   {nibble: 0xc, name: "Socket", symbol: 's'},
	FileTypeSymlink:  {nibble: 0xa, name: "Symlink", symbol: 'l'},
}

func (fileType FileType) String() string {
	if int(fileType) >= len(fileTypes) {
		return fileTypes[FileTypeUnknown].name
	}
	return fileTypes[fileType].name
}

const (
	modeSUID   = 0x0800
	modeSGID   = 0x0400
	modeSticky = 0x0200
	modePerm   = 0x01ff
)

type Mode struct {
	FileType     FileType
	SUID         bool
	SGID         bool
	Sticky       bool
	AccessRights uint16
}

// DecodeMode splits an `i_mode` value into its type nibble and permission
// bits. An unrecognized type nibble decodes as FileTypeUnknown.
func DecodeMode(mode uint16) Mode {
	m := Mode{
		SUID:         mode&modeSUID != 0,
		SGID:         mode&modeSGID != 0,
		Sticky:       mode&modeSticky != 0,
		AccessRights: mode & modePerm,
	}
	for fileType, info := range fileTypes {
		if info.nibble != 0 && info.nibble == mode>>12 {
			m.FileType = FileType(fileType)
			break
		}
	}
	return m
}

// String renders the mode like `ls -l`, e.g. `-rw-r--r--`.
func (mode Mode) String() string {
	symbol := fileTypes[FileTypeUnknown].symbol
	if int(mode.FileType) < len(fileTypes) {
		symbol = fileTypes[mode.FileType].symbol
	}

	out := []byte{symbol}
	for shift := 6; shift >= 0; shift -= 3 {
		bits := mode.AccessRights >> shift
		out = append(
			out,
			permChar(bits&4 != 0, 'r'),
			permChar(bits&2 != 0, 'w'),
			permChar(bits&1 != 0, 'x'),
		)
	}

	special := func(i int, set bool, c byte) {
		if !set {
			return
		}
		if out[i] == 'x' {
			out[i] = c
		} else {
			out[i] = c - ('a' - 'A')
		}
	}
	special(3, mode.SUID, 's')
	special(6, mode.SGID, 's')
	special(9, mode.Sticky, 't')
	return string(out)
}

func permChar(set bool, c byte) byte {
	if set {
		return c
	}
	return '-'
}
