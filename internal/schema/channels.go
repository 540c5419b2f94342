package schema

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"sitepulse/pkg/contracts/domain"
)

// channelProfile holds the estimation bands for one acquisition channel
// category. Values are drawn uniformly from [mean-spread, mean+spread] and
// clamped to the legal range. The bands are a placeholder for dimensions the
// channel-group export simply does not carry; they are structural, not
// measured.
type channelProfile struct {
	pagesPerSession band
	sessionDuration band // seconds
	bounceRate      band // percent
	conversionRate  band // fraction of sessions
}

type band struct {
	mean   float64
	spread float64
}

func (b band) draw(rng *rand.Rand) float64 {
	v := b.mean + (rng.Float64()*2-1)*b.spread
	if v < 0 {
		return 0
	}
	return v
}

// Channel categories recognized in channel-group exports.
const (
	channelOrganicSearch = "organic search"
	channelPaidSearch    = "paid search"
	channelDirect        = "direct"
	channelReferral      = "referral"
	channelSocial        = "social"
	channelEmail         = "email"
)

var channelProfiles = map[string]channelProfile{
	channelOrganicSearch: {
		pagesPerSession: band{mean: 3.2, spread: 0.8},
		sessionDuration: band{mean: 165, spread: 45},
		bounceRate:      band{mean: 48, spread: 10},
		conversionRate:  band{mean: 0.022, spread: 0.008},
	},
	channelPaidSearch: {
		pagesPerSession: band{mean: 2.6, spread: 0.7},
		sessionDuration: band{mean: 120, spread: 35},
		bounceRate:      band{mean: 55, spread: 12},
		conversionRate:  band{mean: 0.035, spread: 0.012},
	},
	channelDirect: {
		pagesPerSession: band{mean: 3.8, spread: 1.0},
		sessionDuration: band{mean: 200, spread: 60},
		bounceRate:      band{mean: 40, spread: 10},
		conversionRate:  band{mean: 0.028, spread: 0.01},
	},
	channelReferral: {
		pagesPerSession: band{mean: 2.9, spread: 0.8},
		sessionDuration: band{mean: 150, spread: 40},
		bounceRate:      band{mean: 50, spread: 12},
		conversionRate:  band{mean: 0.02, spread: 0.008},
	},
	channelSocial: {
		pagesPerSession: band{mean: 1.9, spread: 0.6},
		sessionDuration: band{mean: 80, spread: 30},
		bounceRate:      band{mean: 65, spread: 12},
		conversionRate:  band{mean: 0.01, spread: 0.005},
	},
	channelEmail: {
		pagesPerSession: band{mean: 3.5, spread: 0.9},
		sessionDuration: band{mean: 175, spread: 50},
		bounceRate:      band{mean: 38, spread: 10},
		conversionRate:  band{mean: 0.04, spread: 0.015},
	},
}

// defaultChannelProfile covers unrecognized channel labels.
var defaultChannelProfile = channelProfile{
	pagesPerSession: band{mean: 2.8, spread: 0.8},
	sessionDuration: band{mean: 140, spread: 45},
	bounceRate:      band{mean: 52, spread: 12},
	conversionRate:  band{mean: 0.02, spread: 0.008},
}

// profileFor classifies a raw channel label into one of the known categories.
func profileFor(channel string) channelProfile {
	normalized := strings.ToLower(strings.TrimSpace(channel))
	if p, ok := channelProfiles[normalized]; ok {
		return p
	}
	switch {
	// "organic social" is social traffic, so the social check runs first.
	case strings.Contains(normalized, "social"):
		return channelProfiles[channelSocial]
	case strings.Contains(normalized, "organic"):
		return channelProfiles[channelOrganicSearch]
	case strings.Contains(normalized, "paid") || strings.Contains(normalized, "cpc") || strings.Contains(normalized, "ppc"):
		return channelProfiles[channelPaidSearch]
	case strings.Contains(normalized, "direct") || normalized == "(none)":
		return channelProfiles[channelDirect]
	case strings.Contains(normalized, "referral"):
		return channelProfiles[channelReferral]
	case strings.Contains(normalized, "email") || strings.Contains(normalized, "newsletter"):
		return channelProfiles[channelEmail]
	default:
		return defaultChannelProfile
	}
}

// channelRow is one channel-group export row after field extraction.
type channelRow struct {
	date     time.Time
	channel  string
	sessions int
	users    int
}

// estimated carries the synthesized per-channel figures before the per-date
// merge.
type estimated struct {
	sessions    int
	users       int
	pageViews   int
	conversions int
	duration    float64
	bounceRate  float64
}

// estimateChannelRow synthesizes the dimensions the channel-group schema
// lacks from the channel's profile.
func estimateChannelRow(row channelRow, rng *rand.Rand) estimated {
	profile := profileFor(row.channel)

	pages := profile.pagesPerSession.draw(rng)
	bounce := profile.bounceRate.draw(rng)
	if bounce > 100 {
		bounce = 100
	}
	cvr := profile.conversionRate.draw(rng)

	return estimated{
		sessions:    row.sessions,
		users:       row.users,
		pageViews:   int(float64(row.sessions)*pages + 0.5),
		conversions: int(float64(row.sessions)*cvr + 0.5),
		duration:    profile.sessionDuration.draw(rng),
		bounceRate:  bounce,
	}
}

// mergeChannelRows folds synthesized channel rows sharing a calendar date into
// one session record per date. Sessions, users, page views and conversions
// are summed across the channel mix; duration and bounce rate become
// session-weighted averages so a dominant channel dominates the blended rate.
func mergeChannelRows(rows []channelRow, rng *rand.Rand) []domain.SessionRecord {
	type accum struct {
		domain.SessionRecord
		weightedDuration float64
		weightedBounce   float64
	}

	byDate := make(map[time.Time]*accum)
	var order []time.Time

	for _, row := range rows {
		est := estimateChannelRow(row, rng)

		acc, ok := byDate[row.date]
		if !ok {
			acc = &accum{SessionRecord: domain.SessionRecord{Date: row.date}}
			byDate[row.date] = acc
			order = append(order, row.date)
		}

		acc.Sessions += est.sessions
		acc.Users += est.users
		acc.PageViews += est.pageViews
		acc.Conversions += est.conversions
		acc.weightedDuration += est.duration * float64(est.sessions)
		acc.weightedBounce += est.bounceRate * float64(est.sessions)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	records := make([]domain.SessionRecord, 0, len(order))
	for _, date := range order {
		acc := byDate[date]
		if acc.Sessions > 0 {
			acc.AvgSessionDuration = acc.weightedDuration / float64(acc.Sessions)
			acc.BounceRate = acc.weightedBounce / float64(acc.Sessions)
		}
		records = append(records, acc.SessionRecord)
	}
	return records
}
