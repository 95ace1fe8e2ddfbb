package stash

import (
	"time"

	"github.com/kamstrup/intmap"
)

// NoPage means an item has no preferred page.
const NoPage = -1

// Placement is a destination cell. Row is absolute.
type Placement struct {
	Page   int
	Column int
	Row    int
	// Stack is true when the item merges into the stack already there.
	Stack bool
}

// NoPlacement is returned when no page can take the item.
var NoPlacement = Placement{Page: -1, Column: -1, Row: -1}

// Found reports whether p names a real cell.
func (p Placement) Found() bool {
	return p.Page >= 0
}

// PageRow is the row within the placement's page.
func (p Placement) PageRow() int {
	return p.Row % RowsPerPage
}

// Config tunes a Planner.
type Config struct {
	// Pages is the number of stash pages the character owns.
	Pages int `yaml:"pages" env:"PAGES"`
	// UnlockedPages limits placement to the first n pages; 0 means all.
	UnlockedPages  int   `yaml:"unlocked_pages" env:"UNLOCKED_PAGES"`
	ProtectedPages []int `yaml:"protected_pages" env:"PROTECTED_PAGES"`

	// TypeMapInterval bounds how often the learned type to page map is rebuilt.
	TypeMapInterval          time.Duration `yaml:"type_map_interval" env:"TYPE_MAP_INTERVAL"`
	UseTypeStashingEquipment bool          `yaml:"use_type_stashing_equipment" env:"USE_TYPE_STASHING_EQUIPMENT"`
	UseTypeStashingOther     bool          `yaml:"use_type_stashing_other" env:"USE_TYPE_STASHING_OTHER"`

	// PageOverrides pins item types to a page. Negative pages count back
	// from the last page, so -1 is the last page.
	PageOverrides map[int]int `yaml:"page_overrides"`

	// NeverMerge lists item types that are stackable but must not be merged.
	NeverMerge []int `yaml:"never_merge" env:"NEVER_MERGE"`
}

// DefaultConfig is a five page stash with type stashing off.
func DefaultConfig() Config {
	return Config{
		Pages:           5,
		TypeMapInterval: time.Minute,
	}
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces time.Now for type map expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// Planner chooses stash cells for items.
type Planner struct {
	cfg        Config
	now        func() time.Time
	protected  *intmap.Set[int]
	neverMerge *intmap.Set[int]

	typeMap   *intmap.Map[int, int]
	typeMapAt time.Time
}

func NewPlanner(cfg Config, opts ...Option) *Planner {
	p := &Planner{
		cfg:        cfg,
		now:        time.Now,
		protected:  intmap.NewSet[int](len(cfg.ProtectedPages)),
		neverMerge: intmap.NewSet[int](len(cfg.NeverMerge)),
	}
	for _, page := range cfg.ProtectedPages {
		p.protected.Add(page)
	}
	for _, kind := range cfg.NeverMerge {
		p.neverMerge.Add(kind)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pages returns the page count currently planned against.
func (p *Planner) Pages() int {
	return p.cfg.Pages
}

// SetPages updates the page count, e.g. after the world reports it.
func (p *Planner) SetPages(n int) {
	if n > 0 {
		p.cfg.Pages = n
	}
}

// Place returns where item should go, or NoPlacement when the stash is full
// for it. The ideal page is tried first. Misc items then scan from the last
// page down and everything else from the first page up, so bulk items pack
// towards the back and equipment towards the front.
func (p *Planner) Place(item Entry, grid *Grid) Placement {
	last := p.cfg.Pages - 1
	if last < 0 {
		return NoPlacement
	}

	if ideal := p.IdealPage(item, grid); ideal != NoPage {
		if pl, ok := p.PlaceOnPage(item, p.resolvePage(ideal), grid); ok {
			return pl
		}
	}

	if item.IsMisc() {
		for page := last; page >= 0; page-- {
			if pl, ok := p.PlaceOnPage(item, page, grid); ok {
				return pl
			}
		}
		return NoPlacement
	}

	for page := 0; page <= last; page++ {
		if pl, ok := p.PlaceOnPage(item, page, grid); ok {
			return pl
		}
	}
	return NoPlacement
}

// IdealPage returns the preferred page for item or NoPage. The result may be
// negative or past the last page; Place resolves it.
func (p *Planner) IdealPage(item Entry, grid *Grid) int {
	if page, ok := p.cfg.PageOverrides[item.ItemType]; ok {
		return page
	}

	// The other-items option covers equipment too.
	learn := p.cfg.UseTypeStashingOther || (item.IsEquipment() && p.cfg.UseTypeStashingEquipment)
	if learn {
		if page, ok := p.learnedTypes(grid).Get(item.ItemType); ok {
			return page
		}
	}

	if item.IsMisc() {
		return p.cfg.Pages - 1
	}
	return NoPage
}

func (p *Planner) resolvePage(page int) int {
	last := p.cfg.Pages - 1
	switch {
	case page < 0:
		return max(last+1+page, 0)
	case page > last:
		return last
	default:
		return page
	}
}

// learnedTypes maps each item type to the first page it was seen on. The
// map is rebuilt from grid at most once per TypeMapInterval.
func (p *Planner) learnedTypes(grid *Grid) *intmap.Map[int, int] {
	now := p.now()
	if p.typeMap != nil && now.Sub(p.typeMapAt) <= p.cfg.TypeMapInterval {
		return p.typeMap
	}

	m := intmap.New[int, int](32)
	for _, e := range grid.Entries() {
		m.PutIfNotExists(e.ItemType, e.Page())
	}
	p.typeMap = m
	p.typeMapAt = now
	return m
}

// Usable reports whether items may be placed on page at all.
func (p *Planner) Usable(page int) bool {
	if page < 0 || page >= p.cfg.Pages {
		return false
	}
	if p.cfg.UnlockedPages > 0 && page >= p.cfg.UnlockedPages {
		return false
	}
	return !p.protected.Has(page)
}

// PlaceOnPage tries a single page: stacking first, then an empty cell.
func (p *Planner) PlaceOnPage(item Entry, page int, grid *Grid) (Placement, bool) {
	if !p.Usable(page) {
		return NoPlacement, false
	}
	if pl, ok := p.stackOnPage(item, page, grid); ok {
		return pl, true
	}
	return p.emptyOnPage(item, page, grid)
}

// CanStack reports whether item may merge into an existing stack at all.
func (p *Planner) CanStack(item Entry) bool {
	return !item.Unidentified &&
		item.MaxStack > 0 &&
		!item.Tradeable &&
		!item.TwoSquare &&
		!p.neverMerge.Has(item.ItemType)
}

func (p *Planner) stackOnPage(item Entry, page int, grid *Grid) (Placement, bool) {
	if !p.CanStack(item) {
		return NoPlacement, false
	}
	for i := range RowsPerPage {
		row := page*RowsPerPage + i
		for col := range Columns {
			existing, ok := grid.At(col, row)
			if !ok {
				continue
			}
			if existing.SNO != item.SNO || existing.AnnID == item.AnnID {
				continue
			}
			if existing.Quantity+item.Quantity > item.MaxStack {
				continue
			}
			return Placement{Page: page, Column: col, Row: row, Stack: true}, true
		}
	}
	return NoPlacement, false
}

func (p *Planner) emptyOnPage(item Entry, page int, grid *Grid) (Placement, bool) {
	for i := range RowsPerPage {
		row := page*RowsPerPage + i
		for col := range Columns {
			if item.TwoSquare {
				if i == RowsPerPage-1 {
					continue
				}
				if grid.Occupied(col, row+1) {
					continue
				}
			}
			if grid.Covered(col, row) {
				continue
			}
			return Placement{Page: page, Column: col, Row: row}, true
		}
	}
	return NoPlacement, false
}
