package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/victornm/wordquiz/internal/errors"
	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/leaderboard"
)

const qrSize = 320

type (
	createRoomRequest struct {
		Name string `json:"name" binding:"required"`
	}

	createQuestionRequest struct {
		Question       string `json:"question" binding:"required"`
		Answer         string `json:"answer" binding:"required"`
		HelpingLetters string `json:"helping_letters"`
		Points         *int   `json:"points"`
	}

	selectQuestionRequest struct {
		QuestionID string `json:"question_id" binding:"required"`
	}

	awardPointsRequest struct {
		Player string `json:"player" binding:"required"`
		Points int    `json:"points"`
	}

	awardPointsResponse struct {
		Player string `json:"player"`
		Total  int    `json:"total"`
	}

	joinRequest struct {
		Name string `json:"name" binding:"required"`
	}

	guessRequest struct {
		Name  string `json:"name" binding:"required"`
		Guess string `json:"guess" binding:"required"`
	}

	guessResponse struct {
		Correct bool `json:"correct"`
	}
)

func (a *API) registerRoutes(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.GET("/rooms", a.listRooms)
	v1.POST("/rooms", a.createRoom)

	room := v1.Group("/rooms/:code")
	room.GET("", a.getRoom)
	room.DELETE("", a.closeRoom)
	room.GET("/qr.png", a.roomQR)
	room.GET("/ws", a.streamRoom)

	// Host operations.
	room.POST("/start", a.startGame)
	room.POST("/questions", a.createQuestion)
	room.DELETE("/questions/:id", a.deleteQuestion)
	room.PUT("/current", a.selectQuestion)
	room.POST("/reveal", a.revealAnswer)
	room.POST("/advance", a.advanceQuestion)
	room.POST("/wrong", a.markWrong)
	room.POST("/scores", a.awardPoints)
	room.GET("/scores", a.scores)
	room.GET("/leaderboard", a.getLeaderboard)

	// Participant operations.
	room.POST("/participants", a.join)
	room.DELETE("/participants/:name", a.leave)
	room.POST("/guesses", a.guess)
}

func (a *API) listRooms(c *gin.Context) {
	rooms, err := a.game.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (a *API) createRoom(c *gin.Context) {
	var req createRoomRequest
	if !bind(c, &req) {
		return
	}

	r, err := a.game.CreateRoom(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

func (a *API) getRoom(c *gin.Context) {
	r, err := a.game.Snapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func (a *API) closeRoom(c *gin.Context) {
	if err := a.game.CloseRoom(c.Request.Context(), host(c)); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// roomQR encodes the join link of a room as a PNG.
func (a *API) roomQR(c *gin.Context) {
	code := c.Param("code")
	if _, err := a.game.Snapshot(c.Request.Context(), code); err != nil {
		writeError(c, err)
		return
	}

	png, err := qrcode.Encode(a.joinLink(c, code), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, errors.Internal(err))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (a *API) joinLink(c *gin.Context, code string) string {
	base := a.joinURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host + "/play"
	}

	return JoinLink(base, code)
}

// JoinLink adds the room code to base as the "room" query parameter.
func JoinLink(base, code string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?room=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("room", code)
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *API) startGame(c *gin.Context) {
	r, err := a.game.StartGame(c.Request.Context(), host(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func (a *API) createQuestion(c *gin.Context) {
	var req createQuestionRequest
	if !bind(c, &req) {
		return
	}

	q, err := a.game.CreateQuestion(c.Request.Context(), host(c), game.CreateQuestionRequest{
		Text:           req.Question,
		Answer:         req.Answer,
		HelpingLetters: req.HelpingLetters,
		Points:         req.Points,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, q)
}

func (a *API) deleteQuestion(c *gin.Context) {
	r, err := a.game.DeleteQuestion(c.Request.Context(), host(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func (a *API) selectQuestion(c *gin.Context) {
	var req selectQuestionRequest
	if !bind(c, &req) {
		return
	}

	r, err := a.game.SelectQuestion(c.Request.Context(), host(c), req.QuestionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func (a *API) revealAnswer(c *gin.Context) {
	q, err := a.game.RevealAnswer(c.Request.Context(), host(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, q)
}

func (a *API) advanceQuestion(c *gin.Context) {
	r, err := a.game.AdvanceQuestion(c.Request.Context(), host(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

func (a *API) markWrong(c *gin.Context) {
	sig, err := a.game.MarkWrong(c.Request.Context(), host(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sig)
}

func (a *API) awardPoints(c *gin.Context) {
	var req awardPointsRequest
	if !bind(c, &req) {
		return
	}

	total, err := a.game.AwardPoints(c.Request.Context(), host(c), req.Player, req.Points)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, awardPointsResponse{Player: req.Player, Total: total})
}

func (a *API) scores(c *gin.Context) {
	entries, err := a.game.Scores(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": entries})
}

func (a *API) getLeaderboard(c *gin.Context) {
	l, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{RoomCode: c.Param("code")})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newLeaderboard(*l))
}

func (a *API) join(c *gin.Context) {
	var req joinRequest
	if !bind(c, &req) {
		return
	}

	r, err := a.game.Join(c.Request.Context(), game.Player{RoomCode: c.Param("code"), Name: req.Name})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

func (a *API) leave(c *gin.Context) {
	if err := a.game.Leave(c.Request.Context(), game.Player{RoomCode: c.Param("code"), Name: c.Param("name")}); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) guess(c *gin.Context) {
	var req guessRequest
	if !bind(c, &req) {
		return
	}

	correct, err := a.game.SubmitGuess(c.Request.Context(), game.Player{RoomCode: c.Param("code"), Name: req.Name}, req.Guess)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, guessResponse{Correct: correct})
}

func host(c *gin.Context) game.Host {
	return game.Host{RoomCode: c.Param("code")}
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body: %v", err),
			errors.WithCause(err),
		))
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
