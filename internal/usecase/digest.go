package usecase

import (
	"fmt"
	"strings"

	"AEOAuditor/internal/domain"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func buildDigestMessage(record domain.AuditRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*AEO audit* %s\n", markdownEscaper.Replace(record.Metadata.Title))
	fmt.Fprintf(&b, "%s\n", record.Metadata.URL)
	fmt.Fprintf(&b, "Score: *%d*/100 (bonus %d), trust %s, status %s",
		record.BasicMetrics.AEOScore,
		record.BasicMetrics.AuthorityBonus,
		record.BasicMetrics.TrustSignalLevel,
		record.BasicMetrics.AnalysisStatus,
	)
	if len(record.BasicMetrics.TopEntities) > 0 {
		names := make([]string, 0, len(record.BasicMetrics.TopEntities))
		for _, e := range record.BasicMetrics.TopEntities {
			names = append(names, markdownEscaper.Replace(e.Name))
		}
		fmt.Fprintf(&b, "\nTop entities: %s", strings.Join(names, ", "))
	}
	return b.String()
}
