// Package inspectservice serves decoded image metadata over HTTP.
package inspectservice

import (
	"encoding/json"
	"strconv"

	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/extinspect/pkg/ext4"
	"github.com/weberc2/extinspect/pkg/inspect"
	"github.com/weberc2/extinspect/pkg/render"
)

type InspectService struct {
	Image inspect.Image
}

func (s *InspectService) Routes() []pz.Route {
	return []pz.Route{
		s.SuperblockRoute(),
		s.DescriptorRoute(),
		s.InodesRoute(),
		s.InodeRoute(),
		s.InodeHexRoute(),
	}
}

func (s *InspectService) SuperblockRoute() pz.Route {
	return pz.Route{
		Method:  "GET",
		Path:    "/api/superblock",
		Handler: s.Superblock,
	}
}

func (s *InspectService) DescriptorRoute() pz.Route {
	return pz.Route{
		Method:  "GET",
		Path:    "/api/groups/{group}/descriptor",
		Handler: s.Descriptor,
	}
}

func (s *InspectService) InodesRoute() pz.Route {
	return pz.Route{
		Method:  "GET",
		Path:    "/api/groups/{group}/inodes",
		Handler: s.Inodes,
	}
}

func (s *InspectService) InodeRoute() pz.Route {
	return pz.Route{
		Method:  "GET",
		Path:    "/api/groups/{group}/inodes/{inode}",
		Handler: s.Inode,
	}
}

func (s *InspectService) InodeHexRoute() pz.Route {
	return pz.Route{
		Method:  "GET",
		Path:    "/api/groups/{group}/inodes/{inode}/hex",
		Handler: s.InodeHex,
	}
}

type SuperblockResponse struct {
	UUID       string      `json:"uuid"`
	VolumeName string      `json:"volumeName"`
	BlockSize  uint64      `json:"blockSize"`
	GroupCount int         `json:"groupCount"`
	Fields     ext4.Fields `json:"fields"`
}

func (s *InspectService) Superblock(r pz.Request) pz.Response {
	sb, geometry, err := s.Image.Layout()
	if err != nil {
		return pz.InternalServerError(e{err})
	}
	return pz.Ok(pz.JSON(&SuperblockResponse{
		UUID:       sb.UUID().String(),
		VolumeName: sb.VolumeName(),
		BlockSize:  geometry.BlockSize,
		GroupCount: geometry.GroupCount,
		Fields:     sb.Fields,
	}))
}

// group resolves the `{group}` path variable. A non-nil response means the
// request has already failed.
func (s *InspectService) group(r pz.Request) (inspect.Group, *pz.Response) {
	index, err := strconv.Atoi(r.Vars["group"])
	if err != nil {
		rsp := pz.BadRequest(
			pz.Stringf("invalid block group `%s`", r.Vars["group"]),
			e{err},
		)
		return inspect.Group{}, &rsp
	}

	_, geometry, err := s.Image.Layout()
	if err != nil {
		rsp := pz.InternalServerError(e{err})
		return inspect.Group{}, &rsp
	}
	if index < 0 || index >= geometry.GroupCount {
		rsp := pz.NotFound(
			pz.Stringf("block group `%d` not found", index),
			struct {
				Message    string
				Group      int
				GroupCount int
			}{
				Message:    "block group not found",
				Group:      index,
				GroupCount: geometry.GroupCount,
			},
		)
		return inspect.Group{}, &rsp
	}

	table, err := s.Image.DescriptorTable(&geometry)
	if err != nil {
		rsp := pz.InternalServerError(e{err})
		return inspect.Group{}, &rsp
	}
	group, err := s.Image.Group(&geometry, table, index)
	if err != nil {
		rsp := pz.InternalServerError(e{err})
		return inspect.Group{}, &rsp
	}
	return group, nil
}

func (s *InspectService) Descriptor(r pz.Request) pz.Response {
	group, rsp := s.group(r)
	if rsp != nil {
		return *rsp
	}
	return pz.Ok(pz.JSON(group.Descriptor.Fields))
}

type InodesResponse struct {
	Group     int   `json:"group"`
	Inodes    []int `json:"inodes"`
	Scanned   int   `json:"scanned"`
	Truncated bool  `json:"truncated"`
}

// Inodes lists the populated inode numbers of a group, bounded by the scan
// limit.
func (s *InspectService) Inodes(r pz.Request) pz.Response {
	group, rsp := s.group(r)
	if rsp != nil {
		return *rsp
	}

	slots := group.Slots()
	if limit := s.Image.Config.InodeScanLimit; limit > 0 && limit < slots {
		slots = limit
	}
	out := InodesResponse{
		Group:     group.Index,
		Inodes:    []int{},
		Scanned:   slots,
		Truncated: slots < group.Slots(),
	}
	for slot := 0; slot < slots; slot++ {
		_, _, ok, err := group.Inode(slot)
		if err != nil {
			return pz.InternalServerError(e{err})
		}
		if ok {
			out.Inodes = append(out.Inodes, slot+1)
		}
	}
	return pz.Ok(pz.JSON(&out))
}

type InodeResponse struct {
	Group    int         `json:"group"`
	Inode    int         `json:"inode"`
	FileType string      `json:"fileType"`
	Mode     string      `json:"mode"`
	Size     uint64      `json:"size"`
	Fields   ext4.Fields `json:"fields"`
}

func (s *InspectService) inode(r pz.Request) (ext4.Inode, []byte, int, int, *pz.Response) {
	group, rsp := s.group(r)
	if rsp != nil {
		return ext4.Inode{}, nil, 0, 0, rsp
	}

	n, err := strconv.Atoi(r.Vars["inode"])
	if err != nil {
		rsp := pz.BadRequest(
			pz.Stringf("invalid inode `%s`", r.Vars["inode"]),
			e{err},
		)
		return ext4.Inode{}, nil, 0, 0, &rsp
	}
	notFound := func() *pz.Response {
		rsp := pz.NotFound(
			pz.Stringf("inode `%d` not found in block group `%d`", n, group.Index),
			struct {
				Message string
				Group   int
				Inode   int
			}{
				Message: "inode not found",
				Group:   group.Index,
				Inode:   n,
			},
		)
		return &rsp
	}
	if n < 1 || n > group.Slots() {
		return ext4.Inode{}, nil, 0, 0, notFound()
	}

	inode, raw, ok, err := group.Inode(n - 1)
	if err != nil {
		rsp := pz.InternalServerError(e{err})
		return ext4.Inode{}, nil, 0, 0, &rsp
	}
	if !ok {
		return ext4.Inode{}, nil, 0, 0, notFound()
	}
	return inode, raw, group.Index, n, nil
}

func (s *InspectService) Inode(r pz.Request) pz.Response {
	inode, _, group, n, rsp := s.inode(r)
	if rsp != nil {
		return *rsp
	}
	return pz.Ok(pz.JSON(&InodeResponse{
		Group:    group,
		Inode:    n,
		FileType: inode.Mode.FileType.String(),
		Mode:     inode.Mode.String(),
		Size:     inode.Size(),
		Fields:   inode.Fields,
	}))
}

func (s *InspectService) InodeHex(r pz.Request) pz.Response {
	_, raw, _, _, rsp := s.inode(r)
	if rsp != nil {
		return *rsp
	}
	return pz.Ok(pz.String(render.HexDump(raw)))
}

type e struct {
	err error
}

func (e e) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct{ Err string }{e.err.Error()})
}
