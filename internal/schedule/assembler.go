// Package schedule builds the public schedule view by joining the slot and
// room tables against the scheduled ideas in the KV store.
package schedule

import (
	"context"
	"fmt"

	"openspaces/api/internal/ideas"
	"openspaces/api/internal/store"
)

// SlotSource is the relational side of the schedule.
type SlotSource interface {
	ListSlots(ctx context.Context) ([]store.Slot, error)
	ListRooms(ctx context.Context) ([]store.Room, error)
}

// IdeaSource is the KV side of the schedule.
type IdeaSource interface {
	List(ctx context.Context) ([]ideas.Idea, error)
}

// Session is an idea placed into a slot, with the room name resolved.
type Session struct {
	ideas.Idea
	RoomName string `json:"roomName"`
}

// Entry is one time slot with every session scheduled into it. Slots with
// no room assigned still appear, carrying an empty sessions list.
type Entry struct {
	store.Slot
	Sessions []Session `json:"sessions"`
}

type Assembler struct {
	slots SlotSource
	ideas IdeaSource
}

func NewAssembler(slots SlotSource, ideaSource IdeaSource) *Assembler {
	return &Assembler{slots: slots, ideas: ideaSource}
}

// Build returns every slot ordered by start time, each with the active
// ideas assigned to it. Ideas pointing at a slot that no longer exists are
// dropped; an idea whose room was deleted keeps its session with an empty
// room name.
func (a *Assembler) Build(ctx context.Context) ([]Entry, error) {
	slots, err := a.slots.ListSlots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	rooms, err := a.slots.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	allIdeas, err := a.ideas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}

	roomNames := make(map[string]string, len(rooms))
	for _, room := range rooms {
		roomNames[room.ID] = room.Name
	}

	entries := make([]Entry, len(slots))
	bySlot := make(map[string]*Entry, len(slots))
	for i, slot := range slots {
		entries[i] = Entry{Slot: slot, Sessions: []Session{}}
		bySlot[slot.ID] = &entries[i]
	}

	for _, idea := range allIdeas {
		if idea.Status != ideas.StatusActive || idea.SlotID == nil || idea.RoomID == nil {
			continue
		}
		entry, ok := bySlot[*idea.SlotID]
		if !ok {
			continue
		}
		entry.Sessions = append(entry.Sessions, Session{
			Idea:     idea,
			RoomName: roomNames[*idea.RoomID],
		})
	}
	return entries, nil
}
