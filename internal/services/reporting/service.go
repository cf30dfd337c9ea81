package reporting

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/models"
)

// Filter narrows the analytics window. WindowDays counts back from now;
// zero means the default 30 days. An empty RailwayZone means all zones.
type Filter struct {
	WindowDays  int
	RailwayZone string
}

// ZoneCount is the item total for one railway zone
type ZoneCount struct {
	Zone  string `json:"zone"`
	Items int    `json:"items"`
}

// VendorCount is the item total for one vendor
type VendorCount struct {
	Vendor string `json:"vendor"`
	Items  int    `json:"items"`
}

// StatusCount is the item total for one lifecycle status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DayCount is the scan total for one calendar day
type DayCount struct {
	Date  string `json:"date"`
	Scans int    `json:"scans"`
}

// Dashboard is the on-demand analytics snapshot. Nothing here is stored;
// every call recomputes from the live batch and item tables.
type Dashboard struct {
	TotalItems       int `json:"total_items"`
	TotalBatches     int `json:"total_batches"`
	ActiveBatches    int `json:"active_batches"`
	CompletedBatches int `json:"completed_batches"`

	ItemsByZone        []ZoneCount   `json:"items_by_zone"`
	TopVendors         []VendorCount `json:"top_vendors"`
	StatusDistribution []StatusCount `json:"status_distribution"`
	ScanningActivity   []DayCount    `json:"scanning_activity"`
}

// Service computes analytics and report exports over the inventory tables
type Service struct {
	db    *database.DB
	clock func() time.Time
}

func NewService(db *database.DB) *Service {
	return &Service{db: db, clock: time.Now}
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

// Aggregate builds the dashboard for the requested window and zone
func (s *Service) Aggregate(ctx context.Context, f Filter) (*Dashboard, error) {
	if f.WindowDays <= 0 {
		f.WindowDays = 30
	}
	cutoff := s.clock().AddDate(0, 0, -f.WindowDays)

	q := s.db.WithContext(ctx).
		Where("created_at > ?", cutoff).
		Order("created_at DESC")
	if f.RailwayZone != "" {
		q = q.Where("railway_zone = ?", f.RailwayZone)
	}
	var batches []models.Batch
	if err := q.Find(&batches).Error; err != nil {
		return nil, err
	}

	var items []models.InventoryItem
	if len(batches) > 0 {
		ids := make([]string, 0, len(batches))
		for _, b := range batches {
			ids = append(ids, b.ID)
		}
		err := s.db.WithContext(ctx).
			Where("batch_id IN ?", ids).
			Order("scan_timestamp ASC").
			Find(&items).Error
		if err != nil {
			return nil, err
		}
	}

	return buildDashboard(batches, items), nil
}

// topVendorLimit caps the vendor chart to the busiest vendors
const topVendorLimit = 6

// activityDays is how many distinct scan days the activity series keeps
const activityDays = 14

func buildDashboard(batches []models.Batch, items []models.InventoryItem) *Dashboard {
	d := &Dashboard{
		TotalItems:   len(items),
		TotalBatches: len(batches),
	}

	perBatch := make(map[string]int, len(batches))
	for _, it := range items {
		perBatch[it.BatchID]++
	}

	zoneTotals := make(map[string]int)
	vendorTotals := make(map[string]int)
	var vendorOrder []string
	for _, b := range batches {
		switch b.BatchStatus {
		case models.BatchStatusActive:
			d.ActiveBatches++
		case models.BatchStatusCompleted:
			d.CompletedBatches++
		}
		zoneTotals[b.RailwayZone] += perBatch[b.ID]
		if _, seen := vendorTotals[b.VendorName]; !seen {
			vendorOrder = append(vendorOrder, b.VendorName)
		}
		vendorTotals[b.VendorName] += perBatch[b.ID]
	}

	zones := make([]string, 0, len(zoneTotals))
	for z := range zoneTotals {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	for _, z := range zones {
		d.ItemsByZone = append(d.ItemsByZone, ZoneCount{
			Zone:  strings.ReplaceAll(z, "_", " "),
			Items: zoneTotals[z],
		})
	}

	// Busiest vendors first; ties keep first-encountered order
	vendors := make([]VendorCount, 0, len(vendorOrder))
	for _, v := range vendorOrder {
		vendors = append(vendors, VendorCount{Vendor: v, Items: vendorTotals[v]})
	}
	sort.SliceStable(vendors, func(i, j int) bool {
		return vendors[i].Items > vendors[j].Items
	})
	if len(vendors) > topVendorLimit {
		vendors = vendors[:topVendorLimit]
	}
	d.TopVendors = vendors

	statusTotals := make(map[string]int)
	dayTotals := make(map[string]int)
	var dayKeys []time.Time
	for _, it := range items {
		statusTotals[it.Status]++
		day := it.ScanTimestamp.Truncate(24 * time.Hour)
		if _, seen := dayTotals[day.Format("Jan 02")]; !seen {
			dayKeys = append(dayKeys, day)
		}
		dayTotals[day.Format("Jan 02")]++
	}

	for _, status := range models.ItemStatuses {
		if n := statusTotals[status]; n > 0 {
			d.StatusDistribution = append(d.StatusDistribution, StatusCount{
				Status: titleStatus(status),
				Count:  n,
			})
		}
	}

	sort.Slice(dayKeys, func(i, j int) bool { return dayKeys[i].Before(dayKeys[j]) })
	if len(dayKeys) > activityDays {
		dayKeys = dayKeys[len(dayKeys)-activityDays:]
	}
	for _, day := range dayKeys {
		label := day.Format("Jan 02")
		d.ScanningActivity = append(d.ScanningActivity, DayCount{
			Date:  label,
			Scans: dayTotals[label],
		})
	}

	return d
}

// titleStatus upcases the first letter of a status value for display
func titleStatus(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
