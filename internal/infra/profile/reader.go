package profile

import (
	"errors"
	"os"
	"slices"
	"strings"

	"golang.org/x/tools/cover"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// Reader aggregates a Go-format cover profile into per-file statement tallies.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

var _ ports.ProfileReader = (*Reader)(nil)

func (r *Reader) ReadProfile(path string) (domain.CoverageSummary, error) {
	profiles, err := cover.ParseProfiles(path)
	if err != nil {
		kind := domain.FaultBadConfig
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.FaultNotFound
		}
		return domain.CoverageSummary{}, &domain.Fault{
			Op:   "profile.read",
			Kind: kind,
			Path: path,
			Err:  err,
		}
	}

	sum := domain.CoverageSummary{}
	for _, p := range profiles {
		if sum.Mode == "" {
			sum.Mode = p.Mode
		}

		var covered, total int64
		for _, b := range p.Blocks {
			total += int64(b.NumStmt)
			if b.Count > 0 {
				covered += int64(b.NumStmt)
			}
		}

		sum.Files = append(sum.Files, domain.FileCoverage{
			Name:    p.FileName,
			Covered: covered,
			Total:   total,
			Percent: domain.Ratio(covered, total),
		})
		sum.Covered += covered
		sum.Total += total
	}

	slices.SortFunc(sum.Files, func(a, b domain.FileCoverage) int { return strings.Compare(a.Name, b.Name) })
	sum.Percent = domain.Ratio(sum.Covered, sum.Total)

	return sum, nil
}
