// Package export writes sync outcomes to timestamped CSV or JSON files
// instead of the database.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"reviewsync/internal/domain"
)

const stampLayout = "20060102_150405"

type files struct {
	dir string
	now func() time.Time
}

func (f files) name(kind string, id domain.BusinessID, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", kind, id, f.now().Format(stampLayout), ext)
}

// create writes through a temp file in the target dir and renames it into place,
// so readers never see a half written export.
func (f files) create(name string, fill func(w io.Writer) error) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(f.dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	log.Info().Str("file", path).Msg("export written")
	return path, nil
}

func profileOf(out domain.BusinessOutcome) domain.Business {
	if out.Profile != nil {
		return *out.Profile
	}
	return domain.PlaceholderBusiness(out.Business)
}

func optStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func optInt64(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func optFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
