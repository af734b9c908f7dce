package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campusgate/campusgate/pkg/domain/exam"
	"github.com/campusgate/campusgate/pkg/infra/examwatch"
	"github.com/campusgate/campusgate/pkg/infra/prometheus"
	"github.com/campusgate/campusgate/pkg/infra/repository"
	"github.com/campusgate/campusgate/pkg/middleware"
)

type ExamHandler struct {
	repo    exam.Repository
	watcher *examwatch.Watcher
	logger  *logrus.Logger
	now     func() time.Time
}

func NewExamHandler(repo exam.Repository, watcher *examwatch.Watcher, logger *logrus.Logger) *ExamHandler {
	return &ExamHandler{repo: repo, watcher: watcher, logger: logger, now: time.Now}
}

// SetClock overrides the time source, used by tests.
func (h *ExamHandler) SetClock(now func() time.Time) {
	h.now = now
}

func (h *ExamHandler) ListExams(c *fiber.Ctx) error {
	exams, err := h.repo.ListExams(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to list exams")
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}
	return respondOK(c, fiber.StatusOK, "exams", exams)
}

// GetExam serves the exam paper and feeds the access watcher. Watcher
// failures are logged and ignored: anomaly tracking never takes an exam
// away from a student.
func (h *ExamHandler) GetExam(c *fiber.Ctx) error {
	studentID := middleware.ActorID(c)
	if studentID == "" {
		return respondError(c, fiber.StatusUnauthorized, "authentication required")
	}

	e, err := h.repo.GetExam(c.UserContext(), c.Params("id"))
	if errors.Is(err, repository.ErrExamNotFound) {
		return respondError(c, fiber.StatusNotFound, "exam not found")
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to load exam")
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}

	flagged := false
	if err := h.watcher.RecordAccess(c.UserContext(), studentID, e.ID, h.now()); err != nil {
		h.logger.WithError(err).Warn("failed to record exam access")
	} else {
		flagged, err = h.watcher.Evaluate(c.UserContext(), studentID, e.ID)
		if err != nil {
			h.logger.WithError(err).Warn("failed to evaluate exam access window")
			flagged = false
		}
		if flagged {
			prometheus.ExamWindowsFlagged.Inc()
		}
	}

	return respondOK(c, fiber.StatusOK, "exam", fiber.Map{
		"exam":               e,
		"flagged_suspicious": flagged,
	})
}

type submitRequest struct {
	ExamID  string            `json:"exam_id"`
	Answers map[string]string `json:"answers"`
}

func (h *ExamHandler) SubmitExam(c *fiber.Ctx) error {
	studentID := middleware.ActorID(c)
	if studentID == "" {
		return respondError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "malformed submission")
	}
	if req.ExamID == "" || len(req.Answers) == 0 {
		return respondError(c, fiber.StatusBadRequest, "exam_id and answers are required")
	}

	e, err := h.repo.GetExam(c.UserContext(), req.ExamID)
	if errors.Is(err, repository.ErrExamNotFound) {
		return respondError(c, fiber.StatusNotFound, "exam not found")
	}
	if err != nil {
		h.logger.WithError(err).Error("failed to load exam")
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}

	now := h.now()
	if now.Before(e.StartTime) {
		return respondError(c, fiber.StatusForbidden, "exam has not started")
	}

	exists, err := h.repo.HasSubmission(c.UserContext(), e.ID, studentID)
	if err != nil {
		h.logger.WithError(err).Error("failed to check for existing submission")
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}
	if exists {
		return respondError(c, fiber.StatusConflict, "exam already submitted")
	}

	if exam.UniformAnswers(req.Answers) {
		h.logger.WithFields(logrus.Fields{
			"student_id": studentID,
			"exam_id":    e.ID,
		}).Warn("uniform answers rejected")
		return respondError(c, fiber.StatusUnprocessableEntity, "submission rejected")
	}

	flagged, err := h.watcher.EvaluateSubmission(c.UserContext(), studentID, e.ID)
	if err != nil {
		h.logger.WithError(err).Warn("failed to evaluate access window at submission")
		flagged = false
	}

	submission := &exam.Submission{
		ID:                uuid.NewString(),
		ExamID:            e.ID,
		StudentID:         studentID,
		Score:             exam.Score(e.Questions, req.Answers),
		FlaggedSuspicious: flagged,
		SubmittedAt:       now,
	}
	submission.Grade = exam.Grade(submission.Score)
	for questionID, value := range req.Answers {
		submission.Answers = append(submission.Answers, exam.Answer{
			ID:           uuid.NewString(),
			SubmissionID: submission.ID,
			QuestionID:   questionID,
			Value:        value,
		})
	}

	// A submission arriving after the window closed is still stored, but
	// with the failing grade applied.
	if now.After(e.EndTime) {
		submission.ForceFail()
	}

	if err := h.repo.CreateSubmission(c.UserContext(), submission); err != nil {
		h.logger.WithError(err).Error("failed to store submission")
		return respondError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return respondOK(c, fiber.StatusCreated, "submission recorded", fiber.Map{
		"submission_id":      submission.ID,
		"score":              submission.Score,
		"grade":              submission.Grade,
		"late":               submission.Late,
		"flagged_suspicious": submission.FlaggedSuspicious,
	})
}
