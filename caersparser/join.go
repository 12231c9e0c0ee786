package caersparser

import (
	"strings"

	"github.com/giygas/caers-api/caersparser/entities"
)

// ConcomitantSeparator joins concomitant product names within one report.
const ConcomitantSeparator = ", "

// Split partitions records by role. Suspects are every record whose role is
// not concomitant; concomitants are exactly the concomitant records.
func Split(records []entities.Record) (suspects, concomitants []entities.Record) {
	for _, record := range records {
		if record.Role == entities.RoleConcomitant {
			concomitants = append(concomitants, record)
			continue
		}
		suspects = append(suspects, record)
	}
	return suspects, concomitants
}

// CollapseConcomitants groups concomitant records by report id and joins
// their product names in input order.
func CollapseConcomitants(concomitants []entities.Record) map[string]string {
	names := make(map[string][]string)
	for _, record := range concomitants {
		names[record.ReportID] = append(names[record.ReportID], record.Product)
	}

	collapsed := make(map[string]string, len(names))
	for reportID, products := range names {
		collapsed[reportID] = strings.Join(products, ConcomitantSeparator)
	}
	return collapsed
}

// JoinConcomitants left-joins the collapsed concomitant names onto the
// suspect records. Every suspect is kept; those whose report has no
// concomitant record are returned with HasConcomitants false.
// It returns the number of such unmatched suspects.
func JoinConcomitants(suspects []entities.Record, collapsed map[string]string) ([]entities.Record, int) {
	joined := make([]entities.Record, len(suspects))
	unmatched := 0

	for i, record := range suspects {
		if names, ok := collapsed[record.ReportID]; ok {
			record.Concomitants = names
			record.HasConcomitants = true
		} else {
			unmatched++
		}
		joined[i] = record
	}

	return joined, unmatched
}
