// Package ideas owns the idea lifecycle: submission, vote toggling,
// merging, and schedule assignment. Idea records live in the KV store under
// a 24-hour TTL that is refreshed on every write, so untouched records
// self-clean. Read-modify-write sequences go through the KV adapter's
// optimistic update, which retries on conflicting concurrent writes.
package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"openspaces/api/internal/kv"
	"openspaces/api/internal/util"
)

const (
	keyPrefix = "idea:"

	StatusActive = "active"
	StatusMerged = "merged"

	// AnonymousAuthor marks submissions and votes without any identity.
	AnonymousAuthor = "anonymous"
)

var (
	ErrNotFound   = errors.New("idea not found")
	ErrValidation = errors.New("invalid input")
)

// Idea is a proposed session. SlotID and RoomID are set together by Assign
// or both nil. A merged idea carries MergedInto and stops being votable or
// merge-targetable; the idea created by a merge carries MergedFrom. The
// Votes count always equals len(Voters).
type Idea struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Votes       int       `json:"votes"`
	Voters      []string  `json:"voters"`
	Status      string    `json:"status"`
	SlotID      *string   `json:"slotId"`
	RoomID      *string   `json:"roomId"`
	MergedInto  *string   `json:"mergedInto,omitempty"`
	MergedFrom  []string  `json:"mergedFrom,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Service struct {
	kv  *kv.Store
	ttl time.Duration
}

func NewService(kvStore *kv.Store, ttl time.Duration) *Service {
	return &Service{kv: kvStore, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

// Submit creates an active idea with no votes and no assignment.
func (s *Service) Submit(ctx context.Context, title, description, author string) (Idea, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return Idea{}, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if author == "" {
		author = AnonymousAuthor
	}

	idea := Idea{
		ID:          util.NewID(""),
		Title:       title,
		Description: description,
		Author:      author,
		Votes:       0,
		Voters:      []string{},
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.kv.SetJSON(ctx, key(idea.ID), idea, s.ttl); err != nil {
		return Idea{}, fmt.Errorf("store idea: %w", err)
	}
	return idea, nil
}

// Get returns an idea by id, merged-away ones included.
func (s *Service) Get(ctx context.Context, id string) (Idea, error) {
	var idea Idea
	err := s.kv.GetJSON(ctx, key(id), &idea)
	if errors.Is(err, kv.ErrNotFound) {
		return Idea{}, ErrNotFound
	}
	if err != nil {
		return Idea{}, fmt.Errorf("lookup idea: %w", err)
	}
	return idea, nil
}

// List returns every stored idea in storage-iteration order. Callers
// filter by status; merged ideas stay listed as the audit trail.
func (s *Service) List(ctx context.Context) ([]Idea, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	items := make([]Idea, 0, len(keys))
	for _, k := range keys {
		var idea Idea
		err := s.kv.GetJSON(ctx, k, &idea)
		if errors.Is(err, kv.ErrNotFound) {
			// Expired between scan and read.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read idea %s: %w", k, err)
		}
		items = append(items, idea)
	}
	return items, nil
}

// Vote toggles voterKey's vote on an active idea: present retracts, absent
// casts. The voter set is the source of truth; the count follows it.
func (s *Service) Vote(ctx context.Context, id, voterKey string) (Idea, error) {
	if voterKey == "" {
		voterKey = AnonymousAuthor
	}

	var updated Idea
	err := s.kv.UpdateJSON(ctx, key(id), s.ttl, func(raw []byte) (any, error) {
		var idea Idea
		if err := json.Unmarshal(raw, &idea); err != nil {
			return nil, fmt.Errorf("decode idea: %w", err)
		}
		if idea.Status != StatusActive {
			return nil, ErrNotFound
		}

		if i := indexOf(idea.Voters, voterKey); i >= 0 {
			idea.Voters = append(idea.Voters[:i], idea.Voters[i+1:]...)
		} else {
			idea.Voters = append(idea.Voters, voterKey)
		}
		idea.Votes = len(idea.Voters)
		updated = idea
		return idea, nil
	})
	if errors.Is(err, kv.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return Idea{}, ErrNotFound
	}
	if err != nil {
		return Idea{}, fmt.Errorf("update idea: %w", err)
	}
	return updated, nil
}

// Remove deletes an idea unconditionally, merged or scheduled included.
// Slot assignments are not repaired; the schedule tolerates the dangling
// reference by omitting it.
func (s *Service) Remove(ctx context.Context, id string) error {
	var idea Idea
	err := s.kv.GetJSON(ctx, key(id), &idea)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup idea: %w", err)
	}
	if err := s.kv.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	return nil
}

// Merge combines at least two active ideas into a new one. The merged
// idea's voters are the set union of the sources' voters, so a voter who
// backed several sources counts once. The merged idea is written before
// any source is retired: a crash in between leaves every source active and
// re-mergeable rather than orphaned. Sources are kept as the audit trail.
func (s *Service) Merge(ctx context.Context, ids []string, title, description, actor string) (Idea, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if len(ids) < 2 || title == "" || description == "" {
		return Idea{}, fmt.Errorf("%w: at least two idea ids and a new title and description are required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return Idea{}, fmt.Errorf("%w: duplicate idea id %s", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	// All-or-nothing: every id must resolve to an active idea before
	// anything is written.
	sources := make([]Idea, 0, len(ids))
	for _, id := range ids {
		idea, err := s.Get(ctx, id)
		if err != nil {
			return Idea{}, err
		}
		if idea.Status != StatusActive {
			return Idea{}, ErrNotFound
		}
		sources = append(sources, idea)
	}

	voterSet := make(map[string]struct{})
	voters := []string{}
	for _, src := range sources {
		for _, voter := range src.Voters {
			if _, ok := voterSet[voter]; ok {
				continue
			}
			voterSet[voter] = struct{}{}
			voters = append(voters, voter)
		}
	}

	if actor == "" {
		actor = "facilitator"
	}
	merged := Idea{
		ID:          util.NewID(""),
		Title:       title,
		Description: description,
		Author:      actor,
		Votes:       len(voters),
		Voters:      voters,
		Status:      StatusActive,
		MergedFrom:  append([]string(nil), ids...),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.kv.SetJSON(ctx, key(merged.ID), merged, s.ttl); err != nil {
		return Idea{}, fmt.Errorf("store merged idea: %w", err)
	}

	mergedID := merged.ID
	for _, src := range sources {
		err := s.kv.UpdateJSON(ctx, key(src.ID), s.ttl, func(raw []byte) (any, error) {
			var idea Idea
			if err := json.Unmarshal(raw, &idea); err != nil {
				return nil, fmt.Errorf("decode idea: %w", err)
			}
			idea.Status = StatusMerged
			idea.MergedInto = &mergedID
			return idea, nil
		})
		if err != nil && !errors.Is(err, kv.ErrNotFound) {
			return Idea{}, fmt.Errorf("retire source idea %s: %w", src.ID, err)
		}
	}
	return merged, nil
}

// Assign binds an idea to a slot and room, silently replacing any previous
// assignment. Neither id is checked for existence; the schedule assembler
// tolerates dangling references.
func (s *Service) Assign(ctx context.Context, id, slotID, roomID string) (Idea, error) {
	if slotID == "" || roomID == "" {
		return Idea{}, fmt.Errorf("%w: slot id and room id are required", ErrValidation)
	}

	var updated Idea
	err := s.kv.UpdateJSON(ctx, key(id), s.ttl, func(raw []byte) (any, error) {
		var idea Idea
		if err := json.Unmarshal(raw, &idea); err != nil {
			return nil, fmt.Errorf("decode idea: %w", err)
		}
		idea.SlotID = &slotID
		idea.RoomID = &roomID
		updated = idea
		return idea, nil
	})
	if errors.Is(err, kv.ErrNotFound) {
		return Idea{}, ErrNotFound
	}
	if err != nil {
		return Idea{}, fmt.Errorf("update idea: %w", err)
	}
	return updated, nil
}

// ResetVotes zeroes votes and voters on every active idea and returns the
// number of ideas reset. Merged ideas keep their historical voter sets.
func (s *Service) ResetVotes(ctx context.Context) (int, error) {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list ideas: %w", err)
	}

	reset := 0
	for _, k := range keys {
		err := s.kv.UpdateJSON(ctx, k, s.ttl, func(raw []byte) (any, error) {
			var idea Idea
			if err := json.Unmarshal(raw, &idea); err != nil {
				return nil, fmt.Errorf("decode idea: %w", err)
			}
			if idea.Status != StatusActive {
				return idea, nil
			}
			idea.Votes = 0
			idea.Voters = []string{}
			reset++
			return idea, nil
		})
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return reset, fmt.Errorf("reset idea %s: %w", k, err)
		}
	}
	return reset, nil
}

// RemoveAll deletes every idea record.
func (s *Service) RemoveAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list ideas: %w", err)
	}
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete idea %s: %w", k, err)
		}
	}
	return nil
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
