package services

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ini272/open-flair-shiftplan/models"
)

const (
	AssignedViaGroup      = "group"
	AssignedViaIndividual = "individual"
)

// Planner generates bulk assignment plans across all active shifts. It is
// a greedy randomized heuristic, not an optimizer: shifts are processed in
// start-time order, whole groups are preferred over individuals, and ties
// are broken by the injected random source.
type Planner struct {
	db              *gorm.DB
	log             *zap.Logger
	rng             *rand.Rand
	defaultCapacity int
}

type PlannerOption func(*Planner)

// WithRand injects the random source used for group choice and individual
// sampling. Tests pass a seeded source for deterministic plans.
func WithRand(rng *rand.Rand) PlannerOption {
	return func(p *Planner) { p.rng = rng }
}

// WithLogger injects the structured logger the planner reports runs to.
func WithLogger(log *zap.Logger) PlannerOption {
	return func(p *Planner) { p.log = log }
}

// WithDefaultCapacity sets the capacity assumed for shifts that have none.
func WithDefaultCapacity(n int) PlannerOption {
	return func(p *Planner) {
		if n > 0 {
			p.defaultCapacity = n
		}
	}
}

func NewPlanner(db *gorm.DB, opts ...PlannerOption) *Planner {
	p := &Planner{
		db:              db,
		log:             zap.NewNop(),
		defaultCapacity: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

// PlanOptions control one planning run.
type PlanOptions struct {
	// ClearExisting wipes all shift-user and shift-group associations
	// before planning instead of building on top of them.
	ClearExisting bool
	// UseGroups enables the per-shift group phase.
	UseGroups bool
}

// PlanAssignment is one user placed on one shift during a run.
type PlanAssignment struct {
	ShiftID     uint   `json:"shift_id"`
	ShiftTitle  string `json:"shift_title"`
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	AssignedVia string `json:"assigned_via"`
	GroupName   string `json:"group_name,omitempty"`
}

// PlanStats aggregates what one run did.
type PlanStats struct {
	ShiftsFilled          int     `json:"shifts_filled"`
	TotalAssignments      int     `json:"total_assignments"`
	GroupAssignments      int     `json:"group_assignments"`
	IndividualAssignments int     `json:"individual_assignments"`
	ConflictsAvoided      int     `json:"conflicts_avoided"`
	GroupsUsed            int     `json:"groups_used"`
	AvgPerActiveUser      float64 `json:"avg_assignments_per_user"`
}

type PlanResult struct {
	Assignments []PlanAssignment `json:"assignments"`
	Stats       PlanStats        `json:"stats"`
}

// GeneratePlan runs the bulk assignment algorithm. All mutations happen in
// a single transaction; any failure rolls the whole run back and no partial
// plan is ever committed.
func (p *Planner) GeneratePlan(opts PlanOptions) (*PlanResult, error) {
	var result *PlanResult

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = p.generate(tx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.log.Info("plan generated",
		zap.Bool("clear_existing", opts.ClearExisting),
		zap.Bool("use_groups", opts.UseGroups),
		zap.Int("total_assignments", result.Stats.TotalAssignments),
		zap.Int("group_assignments", result.Stats.GroupAssignments),
		zap.Int("individual_assignments", result.Stats.IndividualAssignments),
		zap.Int("conflicts_avoided", result.Stats.ConflictsAvoided),
		zap.Int("groups_used", result.Stats.GroupsUsed),
	)
	return result, nil
}

func (p *Planner) generate(tx *gorm.DB, opts PlanOptions) (*PlanResult, error) {
	var shifts []models.Shift
	if result := tx.Preload("Users").Preload("Groups").
		Where("is_active = ?", true).Find(&shifts); result.Error != nil {
		return nil, result.Error
	}

	var users []models.User
	if result := tx.Where("is_active = ?", true).Order("id").Find(&users); result.Error != nil {
		return nil, result.Error
	}

	var groups []models.Group
	if opts.UseGroups {
		if result := tx.Preload("Users", "is_active = ?", true).
			Where("is_active = ?", true).Order("id").Find(&groups); result.Error != nil {
			return nil, result.Error
		}
	}

	if opts.ClearExisting {
		if err := clearAssignments(tx); err != nil {
			return nil, err
		}
		for i := range shifts {
			shifts[i].Users = nil
			shifts[i].Groups = nil
		}
	}

	var userOptOuts []models.ShiftUserOptOut
	if result := tx.Find(&userOptOuts); result.Error != nil {
		return nil, result.Error
	}
	var groupOptOuts []models.ShiftGroupOptOut
	if result := tx.Find(&groupOptOuts); result.Error != nil {
		return nil, result.Error
	}
	optOuts := newOptOutIndex(userOptOuts, groupOptOuts)

	// Deterministic processing order: start time, then id.
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].StartTime.Equal(shifts[j].StartTime) {
			return shifts[i].ID < shifts[j].ID
		}
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})

	// Seed occupancy with what is already assigned (nothing after a clear).
	occupancy := make(occupancyIndex)
	for i := range shifts {
		for _, u := range shifts[i].Users {
			occupancy.add(u.ID, shifts[i].StartTime, shifts[i].EndTime)
		}
	}

	assignments := []PlanAssignment{}
	stats := PlanStats{}
	groupsUsed := make(map[uint]bool)

	for i := range shifts {
		shift := &shifts[i]

		capacity := p.defaultCapacity
		if shift.Capacity != nil {
			capacity = *shift.Capacity
		}
		remaining := capacity - len(shift.Users)
		if remaining <= 0 {
			continue
		}

		assigned := make(map[uint]bool, len(shift.Users))
		for _, u := range shift.Users {
			assigned[u.ID] = true
		}

		// Group phase: one random eligible group per shift. Capping at a
		// single group keeps any one shift from being group-dominated.
		if opts.UseGroups && remaining >= 2 {
			alreadyAssigned := make(map[uint]bool, len(shift.Groups))
			for _, g := range shift.Groups {
				alreadyAssigned[g.ID] = true
			}

			var eligible []*models.Group
			for gi := range groups {
				g := &groups[gi]
				if alreadyAssigned[g.ID] || len(g.Users) == 0 {
					continue
				}
				switch checkGroup(shift, g.Users, remaining, optOuts, occupancy) {
				case rejectNone:
					eligible = append(eligible, g)
				case rejectTimeConflict:
					stats.ConflictsAvoided++
				}
			}

			if len(eligible) > 0 {
				g := eligible[p.rng.Intn(len(eligible))]
				if err := tx.Model(shift).Association("Groups").Append(g); err != nil {
					return nil, err
				}
				for ui := range g.Users {
					u := &g.Users[ui]
					if assigned[u.ID] {
						continue
					}
					if err := tx.Model(shift).Association("Users").Append(u); err != nil {
						return nil, err
					}
					assigned[u.ID] = true
					occupancy.add(u.ID, shift.StartTime, shift.EndTime)
					remaining--
					assignments = append(assignments, PlanAssignment{
						ShiftID:     shift.ID,
						ShiftTitle:  shift.Title,
						UserID:      u.ID,
						Username:    u.Username,
						AssignedVia: AssignedViaGroup,
						GroupName:   g.Name,
					})
					stats.GroupAssignments++
				}
				groupsUsed[g.ID] = true
			}
		}

		// Individual phase: random sample without replacement from the
		// remaining eligible users.
		var eligible []*models.User
		for ui := range users {
			u := &users[ui]
			if assigned[u.ID] {
				continue
			}
			switch checkUser(shift, u, remaining, optOuts, occupancy) {
			case rejectNone:
				eligible = append(eligible, u)
			case rejectTimeConflict:
				stats.ConflictsAvoided++
			}
		}

		p.rng.Shuffle(len(eligible), func(a, b int) {
			eligible[a], eligible[b] = eligible[b], eligible[a]
		})
		take := remaining
		if take > len(eligible) {
			take = len(eligible)
		}
		for _, u := range eligible[:take] {
			if err := tx.Model(shift).Association("Users").Append(u); err != nil {
				return nil, err
			}
			assigned[u.ID] = true
			occupancy.add(u.ID, shift.StartTime, shift.EndTime)
			assignments = append(assignments, PlanAssignment{
				ShiftID:     shift.ID,
				ShiftTitle:  shift.Title,
				UserID:      u.ID,
				Username:    u.Username,
				AssignedVia: AssignedViaIndividual,
			})
			stats.IndividualAssignments++
		}

		if len(assigned) > 0 {
			stats.ShiftsFilled++
		}
	}

	stats.TotalAssignments = len(assignments)
	stats.GroupsUsed = len(groupsUsed)
	if len(users) > 0 {
		stats.AvgPerActiveUser = float64(stats.TotalAssignments) / float64(len(users))
	}

	return &PlanResult{Assignments: assignments, Stats: stats}, nil
}

// GeneratePreferencePlan is the older plan path driven by can-work
// preference records instead of the opt-out registry. No group phase; a
// user is eligible for a shift only with an explicit can_work record.
func (p *Planner) GeneratePreferencePlan() (*PlanResult, error) {
	var result *PlanResult

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var shifts []models.Shift
		if r := tx.Preload("Users").Where("is_active = ?", true).Find(&shifts); r.Error != nil {
			return r.Error
		}

		var users []models.User
		if r := tx.Where("is_active = ?", true).Order("id").Find(&users); r.Error != nil {
			return r.Error
		}
		usersByID := make(map[uint]*models.User, len(users))
		for i := range users {
			usersByID[users[i].ID] = &users[i]
		}

		var prefs []models.ShiftPreference
		if r := tx.Where("can_work = ?", true).Order("user_id").Find(&prefs); r.Error != nil {
			return r.Error
		}
		canWork := make(map[uint][]uint) // shiftID -> userIDs
		for _, pref := range prefs {
			canWork[pref.ShiftID] = append(canWork[pref.ShiftID], pref.UserID)
		}

		sort.Slice(shifts, func(i, j int) bool {
			if shifts[i].StartTime.Equal(shifts[j].StartTime) {
				return shifts[i].ID < shifts[j].ID
			}
			return shifts[i].StartTime.Before(shifts[j].StartTime)
		})

		occupancy := make(occupancyIndex)
		for i := range shifts {
			for _, u := range shifts[i].Users {
				occupancy.add(u.ID, shifts[i].StartTime, shifts[i].EndTime)
			}
		}

		assignments := []PlanAssignment{}
		stats := PlanStats{}

		for i := range shifts {
			shift := &shifts[i]

			capacity := p.defaultCapacity
			if shift.Capacity != nil {
				capacity = *shift.Capacity
			}
			remaining := capacity - len(shift.Users)
			if remaining <= 0 {
				continue
			}

			assigned := make(map[uint]bool, len(shift.Users))
			for _, u := range shift.Users {
				assigned[u.ID] = true
			}

			var eligible []*models.User
			for _, userID := range canWork[shift.ID] {
				u, ok := usersByID[userID]
				if !ok || assigned[u.ID] {
					continue
				}
				if occupancy.conflicts(u.ID, shift.StartTime, shift.EndTime) {
					stats.ConflictsAvoided++
					continue
				}
				eligible = append(eligible, u)
			}

			p.rng.Shuffle(len(eligible), func(a, b int) {
				eligible[a], eligible[b] = eligible[b], eligible[a]
			})
			take := remaining
			if take > len(eligible) {
				take = len(eligible)
			}
			for _, u := range eligible[:take] {
				if err := tx.Model(shift).Association("Users").Append(u); err != nil {
					return err
				}
				assigned[u.ID] = true
				occupancy.add(u.ID, shift.StartTime, shift.EndTime)
				assignments = append(assignments, PlanAssignment{
					ShiftID:     shift.ID,
					ShiftTitle:  shift.Title,
					UserID:      u.ID,
					Username:    u.Username,
					AssignedVia: AssignedViaIndividual,
				})
				stats.IndividualAssignments++
			}

			if len(assigned) > 0 {
				stats.ShiftsFilled++
			}
		}

		stats.TotalAssignments = len(assignments)
		if len(users) > 0 {
			stats.AvgPerActiveUser = float64(stats.TotalAssignments) / float64(len(users))
		}

		result = &PlanResult{Assignments: assignments, Stats: stats}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.log.Info("preference plan generated",
		zap.Int("total_assignments", result.Stats.TotalAssignments),
		zap.Int("conflicts_avoided", result.Stats.ConflictsAvoided),
	)
	return result, nil
}

// CurrentAssignments projects all active shift-user links, annotated with
// how each was most likely made: users whose group is also assigned to the
// shift are reported as group assignments.
func CurrentAssignments(db *gorm.DB) ([]PlanAssignment, error) {
	var shifts []models.Shift
	if result := db.Preload("Users").Preload("Groups").
		Where("is_active = ?", true).Order("start_time").Find(&shifts); result.Error != nil {
		return nil, result.Error
	}

	assignments := []PlanAssignment{}
	for i := range shifts {
		shift := &shifts[i]
		groupNames := make(map[uint]string, len(shift.Groups))
		for _, g := range shift.Groups {
			groupNames[g.ID] = g.Name
		}

		for _, u := range shift.Users {
			a := PlanAssignment{
				ShiftID:     shift.ID,
				ShiftTitle:  shift.Title,
				UserID:      u.ID,
				Username:    u.Username,
				AssignedVia: AssignedViaIndividual,
			}
			if u.GroupID != nil {
				if name, ok := groupNames[*u.GroupID]; ok {
					a.AssignedVia = AssignedViaGroup
					a.GroupName = name
				}
			}
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

// ClearAllAssignments wipes every shift-user and shift-group association.
func ClearAllAssignments(db *gorm.DB) error {
	return db.Transaction(clearAssignments)
}

func clearAssignments(tx *gorm.DB) error {
	if err := tx.Exec("DELETE FROM shift_users").Error; err != nil {
		return fmt.Errorf("clearing shift users: %w", err)
	}
	if err := tx.Exec("DELETE FROM shift_groups").Error; err != nil {
		return fmt.Errorf("clearing shift groups: %w", err)
	}
	return nil
}
