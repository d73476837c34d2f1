// Package quizv1 declares the wordquiz.v1.QuizService gRPC service. Messages travel as JSON.
package quizv1

import (
	"github.com/victornm/wordquiz/internal/syncloop"
)

type GetRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type GetRoomResponse struct {
	View syncloop.ParticipantView `json:"view"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type JoinRoomResponse struct {
	View syncloop.ParticipantView `json:"view"`
}

type LeaveRoomRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type LeaveRoomResponse struct{}

type SubmitGuessRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Guess string `json:"guess"`
}

type SubmitGuessResponse struct {
	Correct bool `json:"correct"`
}
