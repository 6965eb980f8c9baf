package display

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/store"
)

// AtomRows lists atoms as id, kind and description, header first. limit <= 0
// lists every atom.
func AtomRows(p *atom.Pool, d *atom.Describer, limit int) (pterm.TableData, error) {
	n := p.Count()
	if limit > 0 && limit < n {
		n = limit
	}
	rows := pterm.TableData{{"ID", "Kind", "Atom"}}
	for id := 0; id < n; id++ {
		a, err := p.Atom(id)
		if err != nil {
			return nil, err
		}
		desc, err := d.Describe(id)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{strconv.Itoa(id), string(a.Kind()), desc})
	}
	return rows, nil
}

// KindRows tallies atoms per kind in a fixed kind order, with a total row.
func KindRows(counts map[atom.Kind]int) pterm.TableData {
	rows := pterm.TableData{{"Kind", "Atoms"}}
	total := 0
	for _, k := range []atom.Kind{atom.KindDummy, atom.KindText, atom.KindNumerical, atom.KindCategorical} {
		if counts[k] == 0 {
			continue
		}
		rows = append(rows, []string{string(k), strconv.Itoa(counts[k])})
		total += counts[k]
	}
	return append(rows, []string{"total", strconv.Itoa(total)})
}

// PoolRows lists stored pools, newest first as returned by the store.
func PoolRows(pools []store.PoolSummary) pterm.TableData {
	rows := pterm.TableData{{"Pool", "Dataset", "Modality", "Atoms", "Fingerprint", "Created"}}
	for _, p := range pools {
		rows = append(rows, []string{
			p.ID,
			p.Dataset,
			string(p.Modality),
			strconv.Itoa(p.AtomCount),
			shorten(p.Fingerprint, 12),
			p.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

// UsageRows lists the most used antecedents of a run.
func UsageRows(usage []store.AntecedentUsage) pterm.TableData {
	rows := pterm.TableData{{"Antecedent", "Uses", "Coverage"}}
	for _, u := range usage {
		rows = append(rows, []string{u.Description, strconv.Itoa(u.Uses), fmt.Sprintf("%.6f", u.Coverage)})
	}
	return rows
}

// PrintTable renders rows with a header line.
func PrintTable(rows pterm.TableData) error {
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
