package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-jarvis/pkg/home"
	"github.com/teslashibe/go-jarvis/pkg/tasksync"
)

// HomeResponse is the home screen in one request.
type HomeResponse struct {
	home.Dashboard
	Quote       string `json:"quote"`
	FeedbackTTL int64  `json:"feedbackTtlMs"`
}

// TaskRequest is the body of POST /api/tasks.
type TaskRequest struct {
	Text string `json:"text"`
}

// MemoryRequest is the body of PUT /api/memory.
type MemoryRequest struct {
	Text string `json:"text"`
}

// VoiceRequest is the body of PUT /api/voice.
type VoiceRequest struct {
	Voice string `json:"voice"`
}

// MuteRequest is the body of POST /api/conversation/mute. Without a body
// the current setting is toggled.
type MuteRequest struct {
	Muted *bool `json:"muted"`
}

func (s *Server) handleHome(c *fiber.Ctx) error {
	dash, err := s.home.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(HomeResponse{
		Dashboard:   dash,
		Quote:       s.home.Quote(c.UserContext()),
		FeedbackTTL: home.FeedbackTTL.Milliseconds(),
	})
}

func (s *Server) handleQuote(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"quote": s.home.Quote(c.UserContext())})
}

// handleView reports which screen the router shows.
func (s *Server) handleView(c *fiber.Ctx) error {
	view := ViewHome
	if s.conv.Snapshot().Connected {
		view = ViewConversation
	}
	return c.JSON(fiber.Map{"view": view})
}

func (s *Server) handleListTasks(c *fiber.Ctx) error {
	tasks, err := s.home.Tasks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

func (s *Server) handleAddTask(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	task, err := s.home.AddTask(c.UserContext(), req.Text)
	if errors.Is(err, home.ErrEmptyTask) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (s *Server) handleToggleTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := s.home.ToggleTask(c.UserContext(), id)
	if err != nil {
		return taskError(err)
	}
	return c.JSON(task)
}

func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := s.home.DeleteTask(c.UserContext(), id); err != nil {
		return taskError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}
	return id, nil
}

func taskError(err error) error {
	if errors.Is(err, home.ErrTaskNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}

func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	mem, err := s.home.Memory(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"text": mem})
}

func (s *Server) handleSaveMemory(c *fiber.Ctx) error {
	var req MemoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	msg, err := s.home.SaveMemory(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"text": req.Text, "message": msg})
}

func (s *Server) handleClearMemory(c *fiber.Ctx) error {
	msg, err := s.home.ClearMemory(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"text": "", "message": msg})
}

func (s *Server) handleGetVoice(c *fiber.Ctx) error {
	voice, err := s.home.Voice(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"voice": voice, "voices": home.Voices()})
}

func (s *Server) handleSetVoice(c *fiber.Ctx) error {
	var req VoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := s.home.SetVoice(c.UserContext(), req.Voice); err != nil {
		if errors.Is(err, home.ErrUnknownVoice) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(fiber.Map{"voice": req.Voice})
}

func (s *Server) handleSmartHome(c *fiber.Ctx) error {
	return c.JSON(s.home.SmartHome())
}

// handleToggleDevice flips a light or the music.
func (s *Server) handleToggleDevice(c *fiber.Ctx) error {
	device := c.Params("device")
	if device == "music" {
		s.home.ToggleMusic()
		return c.JSON(s.home.SmartHome())
	}
	if _, err := s.home.ToggleLights(device); err != nil {
		if errors.Is(err, home.ErrUnknownRoom) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(s.home.SmartHome())
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.conv.Snapshot())
}

func (s *Server) handleMute(c *fiber.Ctx) error {
	var req MuteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
	}
	muted := !s.conv.Snapshot().Muted
	if req.Muted != nil {
		muted = *req.Muted
	}
	if err := s.conv.SetMuted(muted); err != nil {
		return err
	}
	return c.JSON(s.conv.Snapshot())
}

func (s *Server) handleEnd(c *fiber.Ctx) error {
	if err := s.conv.Disconnect(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.conv.Snapshot())
}

func (s *Server) requireTasks() error {
	if s.tasks == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Google Tasks is not configured")
	}
	return nil
}

func (s *Server) handleTaskSyncAuth(c *fiber.Ctx) error {
	if err := s.requireTasks(); err != nil {
		return err
	}
	return c.JSON(s.tasks.Status())
}

func (s *Server) handleTaskSyncCallback(c *fiber.Ctx) error {
	if err := s.requireTasks(); err != nil {
		return err
	}
	if msg := c.Query("error"); msg != "" {
		return fiber.NewError(fiber.StatusBadRequest, "authorization denied: "+msg)
	}
	err := s.tasks.HandleCallback(c.UserContext(), c.Query("state"), c.Query("code"))
	if errors.Is(err, tasksync.ErrStateMismatch) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Redirect("/")
}

func (s *Server) handleTaskSyncPush(c *fiber.Ctx) error {
	if err := s.requireTasks(); err != nil {
		return err
	}
	start := time.Now()
	res, err := s.tasks.Push(c.UserContext())
	if errors.Is(err, tasksync.ErrNotAuthenticated) {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return err
	}
	s.logger.Info("tasks pushed", "created", res.Created, "updated", res.Updated, "took", time.Since(start))
	return c.JSON(res)
}
