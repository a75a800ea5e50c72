package calendar

// Update pairs a calendar event with the guild event mirroring it.
type Update struct {
	Target GuildEvent
	Event  Event
}

// Plan is the set of changes that brings the guild in line with the calendar.
type Plan struct {
	Create []Event
	Update []Update
	Delete []GuildEvent
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Diff compares upcoming calendar events with the guild's tagged events.
// Guild events without a calendar marker are never touched. When several
// guild events carry the same marker, all but the first are deleted.
func Diff(upcoming []Event, existing []GuildEvent) Plan {
	var plan Plan

	tagged := make(map[string]GuildEvent, len(existing))
	order := make([]string, 0, len(existing))

	for _, guildEvent := range existing {
		id, ok := guildEvent.CalendarID()
		if !ok {
			continue
		}
		if _, dup := tagged[id]; dup {
			plan.Delete = append(plan.Delete, guildEvent)
			continue
		}
		tagged[id] = guildEvent
		order = append(order, id)
	}

	current := make(map[string]struct{}, len(upcoming))

	for _, event := range upcoming {
		current[event.ID] = struct{}{}

		if guildEvent, ok := tagged[event.ID]; ok {
			plan.Update = append(plan.Update, Update{Target: guildEvent, Event: event})
		} else {
			plan.Create = append(plan.Create, event)
		}
	}

	for _, id := range order {
		if _, ok := current[id]; !ok {
			plan.Delete = append(plan.Delete, tagged[id])
		}
	}

	return plan
}
