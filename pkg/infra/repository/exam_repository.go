package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/campusgate/campusgate/pkg/domain/exam"
)

var ErrExamNotFound = errors.New("exam not found")

type ExamRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

func (r *ExamRepository) GetExam(ctx context.Context, id string) (*exam.Exam, error) {
	var e exam.Exam
	err := r.db.WithContext(ctx).Preload("Questions").First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}
	return &e, nil
}

func (r *ExamRepository) ListExams(ctx context.Context) ([]exam.Exam, error) {
	var exams []exam.Exam
	if err := r.db.WithContext(ctx).Order("start_time").Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, nil
}

func (r *ExamRepository) CreateSubmission(ctx context.Context, submission *exam.Submission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return nil
}

func (r *ExamRepository) HasSubmission(ctx context.Context, examID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&exam.Submission{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for existing submission: %w", err)
	}
	return count > 0, nil
}
