// Package listings holds the collection view over the full set of flats: an
// in-memory working set loaded in one shot, pure filtering, stable sorting
// with direction toggling, and mutation entry points that only commit the
// in-memory copy once the repository confirms the write.
package listings

import (
	"errors"
	"log"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/types"
)

var ErrFlatNotFound = errors.New("flat not found in working set")

const displayDateLayout = "2006-01-02"

// dateLayouts are the formats availability dates have been observed in:
// plain date strings and full timestamps with varying precision.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type View struct {
	log *log.Logger
	db  database.FlatFinderRepository

	mu        sync.RWMutex
	flats     []types.Flat
	sortField string
	sortAsc   bool
}

func NewView(logger *log.Logger, db database.FlatFinderRepository) *View {
	return &View{
		log: logger,
		db:  db,
	}
}

// Load fetches every flat and replaces the working set wholesale. The
// previous sort order is not reapplied; callers re-sort as needed.
func (v *View) Load() error {
	dbFlats, err := v.db.ListFlats()
	if err != nil {
		return err
	}

	flats := make([]types.Flat, len(dbFlats))
	for i, f := range dbFlats {
		flats[i] = ToApiFlat(f)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.flats = flats
	v.sortField = ""
	v.sortAsc = true

	return nil
}

// All returns a copy of the working set in its current order.
func (v *View) All() []types.Flat {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return slices.Clone(v.flats)
}

// Filter returns the flats whose textual rendering contains query,
// case-insensitively, preserving working-set order. It never mutates the
// working set and an empty query matches everything.
func (v *View) Filter(query string) []types.Flat {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if query == "" {
		return slices.Clone(v.flats)
	}

	needle := strings.ToLower(query)
	var matched []types.Flat
	for _, f := range v.flats {
		for _, field := range searchFields(f) {
			if strings.Contains(strings.ToLower(field), needle) {
				matched = append(matched, f)
				break
			}
		}
	}

	return matched
}

func searchFields(f types.Flat) []string {
	return []string{
		f.City,
		f.StreetName,
		strconv.Itoa(f.StreetNumber),
		formatNumber(f.RentPrice),
		formatNumber(f.AreaSize),
		strconv.Itoa(f.YearBuilt),
		f.DateAvailable,
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Sort stable-sorts the working set by field and returns the new order.
// Sorting by the same field again reverses the direction; a different field
// resets to ascending. Unknown fields leave the order untouched.
func (v *View) Sort(field string) []types.Flat {
	v.mu.Lock()
	defer v.mu.Unlock()

	cmp := compareFunc(field)
	if cmp == nil {
		v.log.Printf("ignoring sort on unknown field %q", field)
		return slices.Clone(v.flats)
	}

	if field == v.sortField {
		v.sortAsc = !v.sortAsc
	} else {
		v.sortField = field
		v.sortAsc = true
	}

	asc := v.sortAsc
	sort.SliceStable(v.flats, func(i, j int) bool {
		if asc {
			return cmp(v.flats[i], v.flats[j])
		}
		return cmp(v.flats[j], v.flats[i])
	})

	return slices.Clone(v.flats)
}

// compareFunc returns a strict less-than for the named field, or nil if the
// field is not sortable. String fields compare case-insensitively; booleans
// treat true > false.
func compareFunc(field string) func(a, b types.Flat) bool {
	switch field {
	case "city":
		return func(a, b types.Flat) bool {
			return strings.ToLower(a.City) < strings.ToLower(b.City)
		}
	case "street_name":
		return func(a, b types.Flat) bool {
			return strings.ToLower(a.StreetName) < strings.ToLower(b.StreetName)
		}
	case "street_number":
		return func(a, b types.Flat) bool { return a.StreetNumber < b.StreetNumber }
	case "rent_price":
		return func(a, b types.Flat) bool { return a.RentPrice < b.RentPrice }
	case "area_size":
		return func(a, b types.Flat) bool { return a.AreaSize < b.AreaSize }
	case "year_built":
		return func(a, b types.Flat) bool { return a.YearBuilt < b.YearBuilt }
	case "date_available":
		return func(a, b types.Flat) bool { return a.DateAvailable < b.DateAvailable }
	case "has_ac":
		return func(a, b types.Flat) bool { return !a.HasAC && b.HasAC }
	default:
		return nil
	}
}

// ToggleFavorite flips userId's membership in the flat's favorites set. The
// repository write runs first; the in-memory copy is only updated after it
// succeeds, so a failed write never leaves the view ahead of the store. It
// returns whether the user is a member after the toggle.
func (v *View) ToggleFavorite(flatId, userId int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx := v.indexOf(flatId)
	if idx < 0 {
		return false, ErrFlatNotFound
	}

	flat := &v.flats[idx]
	if slices.Contains(flat.Favorites, userId) {
		if err := v.db.RemoveFavorite(flatId, userId); err != nil {
			return true, err
		}

		flat.Favorites = slices.DeleteFunc(slices.Clone(flat.Favorites), func(id int) bool {
			return id == userId
		})
		return false, nil
	}

	if err := v.db.AddFavorite(flatId, userId); err != nil {
		return false, err
	}

	flat.Favorites = append(slices.Clone(flat.Favorites), userId)
	return true, nil
}

// Delete removes the flat from the store, then prunes it from the working
// set on success.
func (v *View) Delete(flatId int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.db.DeleteFlat(flatId); err != nil {
		return err
	}

	if idx := v.indexOf(flatId); idx >= 0 {
		v.flats = slices.Delete(v.flats, idx, idx+1)
	}

	return nil
}

// Get returns the working-set copy of the flat with the given external id.
func (v *View) Get(externalId string) (types.Flat, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, f := range v.flats {
		if f.ExternalId == externalId {
			return f, true
		}
	}

	return types.Flat{}, false
}

func (v *View) indexOf(flatId int) int {
	for i, f := range v.flats {
		if f.Id == flatId {
			return i
		}
	}

	return -1
}

// NormalizeDate converts an availability date that may be a plain date
// string or a full timestamp into the single display format. Values that
// match no known layout pass through unchanged.
func NormalizeDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(displayDateLayout)
		}
	}

	return raw
}

func ToApiFlat(f database.Flat) types.Flat {
	favorites := f.Favorites
	if favorites == nil {
		favorites = make([]int, 0)
	}

	return types.Flat{
		Id:            f.Id,
		ExternalId:    f.ExternalId,
		OwnerId:       f.OwnerId,
		City:          f.City,
		StreetName:    f.StreetName,
		StreetNumber:  f.StreetNumber,
		RentPrice:     f.RentPrice,
		AreaSize:      f.AreaSize,
		YearBuilt:     f.YearBuilt,
		DateAvailable: NormalizeDate(f.DateAvailable),
		HasAC:         f.HasAC,
		Favorites:     favorites,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ToApiFlats converts repository flats for callers that bypass the working
// set, applying the same date normalization.
func ToApiFlats(dbFlats []database.Flat) []types.Flat {
	flats := make([]types.Flat, len(dbFlats))
	for i, f := range dbFlats {
		flats[i] = ToApiFlat(f)
	}

	return flats
}
