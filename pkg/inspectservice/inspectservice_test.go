package inspectservice

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	pz "github.com/weberc2/httpeasy"
	pztest "github.com/weberc2/httpeasy/testsupport"

	"github.com/weberc2/extinspect/pkg/inspect"
	"github.com/weberc2/extinspect/pkg/testsupport"
	"github.com/weberc2/extinspect/pkg/volume"
)

func newService() *InspectService {
	img := testsupport.NewImage(1024, 256, 4, 2)
	img.SetInode(0, 1, testsupport.RegularFileInode(256, 11, 40))
	img.SetInode(1, 3, testsupport.RegularFileInode(256, 12, 41))

	config := inspect.DefaultConfig()
	config.GeometryFromSuperblock = true
	return &InspectService{Image: inspect.Image{
		Volume: volume.NewMemoryVolume(img.Bytes()),
		Config: config,
	}}
}

func decode(t *testing.T, rsp pz.Response, wantedStatus int, v interface{}) {
	t.Helper()
	data, err := pztest.ReadAll(rsp.Data)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	if rsp.Status != wantedStatus {
		t.Fatalf(
			"status: wanted `%d`; found `%d` (body: %s)",
			wantedStatus,
			rsp.Status,
			data,
		)
	}
	if v != nil {
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("unmarshaling response body `%s`: %v", data, err)
		}
	}
}

func TestInspectService_Superblock(t *testing.T) {
	var found struct {
		VolumeName string `json:"volumeName"`
		BlockSize  uint64 `json:"blockSize"`
		GroupCount int    `json:"groupCount"`
		Fields     []struct {
			Key   string          `json:"key"`
			Hex   string          `json:"hex"`
			Value json.RawMessage `json:"value"`
		} `json:"fields"`
	}
	decode(t, newService().Superblock(pz.Request{}), http.StatusOK, &found)

	if found.VolumeName != "synthetic" {
		t.Fatalf("volume name: wanted `synthetic`; found `%s`", found.VolumeName)
	}
	if found.BlockSize != 1024 || found.GroupCount != 2 {
		t.Fatalf(
			"wanted block size `1024`, `2` groups; found `%d`, `%d`",
			found.BlockSize,
			found.GroupCount,
		)
	}
	for _, f := range found.Fields {
		if f.Key == "magicSignature" {
			if f.Hex != "53ef" || string(f.Value) != `"ef53"` {
				t.Fatalf(
					"magic: wanted hex `53ef`, value `\"ef53\"`; found `%s`, `%s`",
					f.Hex,
					f.Value,
				)
			}
			return
		}
	}
	t.Fatal("missing field `magicSignature`")
}

func TestInspectService_Inodes(t *testing.T) {
	service := newService()
	for _, testCase := range []struct {
		group  string
		wanted []int
	}{
		{group: "0", wanted: []int{2}},
		{group: "1", wanted: []int{4}},
	} {
		var found InodesResponse
		decode(
			t,
			service.Inodes(pz.Request{Vars: map[string]string{"group": testCase.group}}),
			http.StatusOK,
			&found,
		)
		if diff := cmp.Diff(testCase.wanted, found.Inodes); diff != "" {
			t.Fatalf("group `%s` (-wanted +found):\n%s", testCase.group, diff)
		}
	}
}

func TestInspectService_Inode(t *testing.T) {
	service := newService()

	var found struct {
		Inode    int    `json:"inode"`
		FileType string `json:"fileType"`
		Mode     string `json:"mode"`
		Size     uint64 `json:"size"`
	}
	decode(
		t,
		service.Inode(pz.Request{Vars: map[string]string{
			"group": "1",
			"inode": "4",
		}}),
		http.StatusOK,
		&found,
	)
	if found.Inode != 4 || found.FileType != "Regular" ||
		found.Mode != "-rw-r--r--" || found.Size != 12 {
		t.Fatalf("unexpected inode: %+v", found)
	}

	rsp := service.InodeHex(pz.Request{Vars: map[string]string{
		"group": "1",
		"inode": "4",
	}})
	data, err := pztest.ReadAll(rsp.Data)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	if !strings.HasPrefix(string(data), "a481  0000  0c00") {
		t.Fatalf("wanted the raw inode record; found `%s`", data)
	}
}

func TestInspectService_Errors(t *testing.T) {
	service := newService()
	for _, testCase := range []struct {
		name         string
		handler      func(pz.Request) pz.Response
		vars         map[string]string
		wantedStatus int
	}{
		{
			name:         "malformed group",
			handler:      service.Descriptor,
			vars:         map[string]string{"group": "zero"},
			wantedStatus: http.StatusBadRequest,
		},
		{
			name:         "group out of range",
			handler:      service.Descriptor,
			vars:         map[string]string{"group": "2"},
			wantedStatus: http.StatusNotFound,
		},
		{
			name:         "empty slot",
			handler:      service.Inode,
			vars:         map[string]string{"group": "0", "inode": "1"},
			wantedStatus: http.StatusNotFound,
		},
		{
			name:         "inode zero",
			handler:      service.InodeHex,
			vars:         map[string]string{"group": "0", "inode": "0"},
			wantedStatus: http.StatusNotFound,
		},
		{
			name:         "inode past table",
			handler:      service.Inode,
			vars:         map[string]string{"group": "0", "inode": "5"},
			wantedStatus: http.StatusNotFound,
		},
		{
			name:         "malformed inode",
			handler:      service.Inode,
			vars:         map[string]string{"group": "0", "inode": "x"},
			wantedStatus: http.StatusBadRequest,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			decode(
				t,
				testCase.handler(pz.Request{Vars: testCase.vars}),
				testCase.wantedStatus,
				nil,
			)
		})
	}
}
