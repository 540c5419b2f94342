package metrics

import (
	"sort"

	"sitepulse/pkg/contracts/domain"
)

// campaignPerformance sums session and conversion activity whose period start
// falls inside each campaign's flight window, boundaries inclusive, and
// derives the per-campaign rates. Rows come out sorted by campaign name.
func (c *Calculator) campaignPerformance(campaigns []domain.CampaignRecord, sessions []domain.SessionPeriod, conversions []domain.ConversionPeriod) []domain.CampaignPerformance {
	rows := make([]domain.CampaignPerformance, 0, len(campaigns))
	for _, campaign := range campaigns {
		window := domain.DateRange{Start: campaign.StartDate, End: campaign.EndDate}

		row := domain.CampaignPerformance{
			CampaignName: campaign.CampaignName,
			SourceLabel:  campaign.SourceLabel,
			StartDate:    campaign.StartDate,
			EndDate:      campaign.EndDate,
		}

		for _, p := range sessions {
			if window.Contains(p.PeriodStart) || window.Contains(p.Date) {
				row.Sessions += p.Sessions
			}
		}
		for _, p := range conversions {
			if window.Contains(p.PeriodStart) || window.Contains(p.Date) {
				row.Conversions += p.Conversions
				row.Revenue += p.Revenue
			}
		}

		row.ConversionRate = safeDiv(float64(row.Conversions), float64(row.Sessions)) * 100
		row.RevenuePerSession = safeDiv(row.Revenue, float64(row.Sessions))

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CampaignName < rows[j].CampaignName
	})

	return rows
}
