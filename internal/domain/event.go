package domain

const (
	EventNameRoomChanged        = "room.changed"
	EventNameRoomDeleted        = "room.deleted"
	EventNameScoreAwarded       = "score.awarded"
	EventNameAnswerMarkedWrong  = "answer.marked_wrong"
	EventNameLeaderboardUpdated = "leaderboard.updated"
)

// EventRoomChanged is published after any committed mutation of a room.
type EventRoomChanged struct {
	Room Room
}

func (EventRoomChanged) Name() string { return EventNameRoomChanged }

type EventRoomDeleted struct {
	Code string
}

func (EventRoomDeleted) Name() string { return EventNameRoomDeleted }

type EventScoreAwarded struct {
	RoomCode string
	Player   string
	Points   int
	Total    int
}

func (EventScoreAwarded) Name() string { return EventNameScoreAwarded }

type EventAnswerMarkedWrong struct {
	Signal Signal
}

func (EventAnswerMarkedWrong) Name() string { return EventNameAnswerMarkedWrong }

// Leaderboard is the ranked view of a room's scores, highest first.
type Leaderboard struct {
	RoomCode string
	Entries  []ScoreEntry
}

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }
