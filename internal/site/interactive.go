package site

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/folio/internal/carousel"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/mail"
	"github.com/Zachkp/folio/internal/tictactoe"
)

const keepAliveInterval = 25 * time.Second

// testimonials renders the carousel at slide i, or at strip position pos.
// Controls step one position at a time so the strip always slides forward
// or back; landing on a clone is followed by a settle=1 request that jumps
// to the real slide without animation.
func (s *Server) testimonials(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := s.repo.Section(ctx, content.SectionTestimonials)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, err := s.repo.Testimonials.List(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}

	i, err := strconv.Atoi(c.DefaultQuery("i", "0"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid slide index")
		return
	}
	track := carousel.New(len(items), visibleTestimonials)
	pos, jump := track.Offset(i), false
	if raw := c.Query("pos"); raw != "" {
		if pos, err = strconv.Atoi(raw); err != nil {
			c.String(http.StatusBadRequest, "invalid strip position")
			return
		}
		if c.Query("settle") != "" || pos < 0 || pos >= stripLen(track) {
			pos, jump = track.Settle(pos)
		}
	}
	c.HTML(http.StatusOK, "carousel.html", carouselAt(items, settings.Autoplay, pos, jump))
}

type gameCell struct {
	Index int
	Mark  string
	Win   bool
}

type gameView struct {
	Board  string
	Cells  []gameCell
	Over   bool
	Status string
	Error  string
}

// The visitor always plays X and moves first.
const humanMark = tictactoe.X

func newGameView(b tictactoe.Board, res *tictactoe.Result, errMsg string) *gameView {
	winner, line := b.Winner()
	v := &gameView{Board: b.String(), Over: b.Over(), Error: errMsg}
	for i, m := range b {
		v.Cells = append(v.Cells, gameCell{Index: i, Mark: m.String(), Win: slices.Contains(line, i)})
	}
	switch {
	case winner == humanMark:
		v.Status = "You win!"
	case winner != tictactoe.Empty:
		v.Status = "The computer wins. Try again?"
	case b.Full():
		v.Status = "It's a draw."
	case res != nil && res.AIMove >= 0:
		v.Status = "The computer played cell " + strconv.Itoa(res.AIMove+1) + ". Your move."
	default:
		v.Status = "You are X. Your move."
	}
	return v
}

func (s *Server) newGame(c *gin.Context) {
	c.HTML(http.StatusOK, "game.html", newGameView(tictactoe.Board{}, nil, ""))
}

func (s *Server) move(c *gin.Context) {
	board, err := tictactoe.ParseBoard(c.PostForm("board"))
	if err == nil && !humansTurn(board) {
		err = tictactoe.ErrBadBoard
	}
	if err != nil {
		c.HTML(http.StatusBadRequest, "game.html", newGameView(tictactoe.Board{}, nil, "That board looks broken, starting over."))
		return
	}

	cell, err := strconv.Atoi(c.PostForm("cell"))
	if err != nil {
		cell = -1
	}
	res, err := tictactoe.Play(board, humanMark, cell)
	if err != nil {
		msg := "That move is not allowed."
		switch {
		case errors.Is(err, tictactoe.ErrOccupied):
			msg = "That cell is already taken."
		case errors.Is(err, tictactoe.ErrGameOver):
			msg = "The game is over."
		}
		c.HTML(http.StatusUnprocessableEntity, "game.html", newGameView(board, nil, msg))
		return
	}
	c.HTML(http.StatusOK, "game.html", newGameView(res.Board, &res, ""))
}

// humansTurn reports whether the board is a position where X is to move.
func humansTurn(b tictactoe.Board) bool {
	var nx, no int
	for _, m := range b {
		switch m {
		case tictactoe.X:
			nx++
		case tictactoe.O:
			no++
		}
	}
	return nx == no
}

type contactForm struct {
	FullName string `form:"fullName" binding:"required,max=100"`
	Email    string `form:"email" binding:"required,email,max=200"`
	Message  string `form:"message" binding:"required,max=5000"`
	// Website is a honeypot hidden from people.
	Website string `form:"website"`
}

func (s *Server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{"title": "Contact Me"})
}

func (s *Server) contact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusUnprocessableEntity, "contact.html", gin.H{
			"title":    "Contact Me",
			"error":    "Please fill in your name, a valid email address and a message.",
			"fullName": form.FullName,
			"email":    form.Email,
			"message":  form.Message,
		})
		return
	}

	success := gin.H{"success": "Thank you for your message! I'll get back to you soon."}
	if form.Website != "" {
		s.logger.Info("contact honeypot triggered")
		c.HTML(http.StatusOK, "contact-success.html", success)
		return
	}

	ctx := c.Request.Context()
	msg := content.Message{Name: form.FullName, Email: form.Email, Body: form.Message}
	if err := s.repo.Messages.Save(ctx, &msg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, content.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		} else {
			s.logger.Error("error storing contact message", zap.Error(err))
		}
		c.HTML(status, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	// The message is stored, so a mail failure is not the visitor's problem.
	if err := s.mailer.Send(ctx, mail.Contact{Name: msg.Name, Email: msg.Email, Message: msg.Body}); err != nil {
		s.logger.Warn("error sending contact email", zap.String("message_id", msg.ID), zap.Error(err))
	}
	c.HTML(http.StatusOK, "contact-success.html", success)
}

func (s *Server) contactLimited(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, "contact-error.html", gin.H{
		"error": "You have sent several messages in a short time. Please wait a minute and try again.",
	})
}

// stream sends one server-sent event per changed section. The event name is
// the section, so fragments can listen with hx-trigger="sse:<section>".
func (s *Server) stream(c *gin.Context) {
	events, cancel := s.hub.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	ctx := c.Request.Context()

	c.SSEvent("ready", "ok")
	c.Writer.Flush()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Section, ev)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
