package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nwaples/rardecode"
)

type rarMember struct {
	name string
	size int64
	data []byte
}

type rarArchive struct {
	members []rarMember
}

func (r *rarArchive) archiveType() Type { return TypeRar }

func (r *rarArchive) Members() []Member {
	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, Member{Name: m.name, Size: m.size})
	}
	return out
}

func (r *rarArchive) Open(name string) (io.ReadCloser, error) {
	for _, m := range r.members {
		if m.name == name {
			return io.NopCloser(bytes.NewReader(m.data)), nil
		}
	}
	return nil, fmt.Errorf("archive: member %q not found", name)
}

func (r *rarArchive) Close() error { return nil }

// openRar relies on rardecode.OpenReader itself rejecting non-RAR files, so
// ok is false whenever the open fails for any reason other than a genuine
// read error partway through a file it already accepted as RAR.
func openRar(path string) (Archive, bool, error) {
	rc, err := rardecode.OpenReader(path, "")
	if err != nil {
		return nil, false, nil
	}
	defer rc.Close()

	a := &rarArchive{}
	for {
		hdr, err := rc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading rar directory: %w", err)
		}
		if hdr.IsDir {
			continue
		}
		buf, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, fmt.Errorf("reading rar member %q: %w", hdr.Name, err)
		}
		a.members = append(a.members, rarMember{name: hdr.Name, size: hdr.UnPackedSize, data: buf})
	}
	return a, true, nil
}
