package editor

import (
	"fmt"

	"github.com/khoahotran/portgen/internal/domain/portfolio"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateSaving
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AssetKey identifies one uploadable field. Progress is tracked per key.
type AssetKey struct {
	Section portfolio.SectionKey
	Field   string
}

func (k AssetKey) String() string {
	return string(k.Section) + "_" + k.Field
}

// UploadStatus is the last known state of the newest upload for a key.
type UploadStatus struct {
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}
