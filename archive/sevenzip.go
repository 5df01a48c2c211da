package archive

import (
	"fmt"
	"io"

	"github.com/uwedeportivo/sevenzip"
)

type sevenZipArchive struct {
	r *sevenzip.ReadCloser
}

func (s *sevenZipArchive) archiveType() Type { return TypeSevenZip }

func (s *sevenZipArchive) Members() []Member {
	var out []Member
	for _, f := range s.r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, Member{Name: f.Name, Size: int64(f.UncompressedSize)})
	}
	return out
}

func (s *sevenZipArchive) Open(name string) (io.ReadCloser, error) {
	for _, f := range s.r.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive: member %q not found", name)
}

func (s *sevenZipArchive) Close() error {
	return s.r.Close()
}

func openSevenZip(path string) (Archive, bool, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, false, nil
	}
	return &sevenZipArchive{r: r}, true, nil
}
