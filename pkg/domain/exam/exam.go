package exam

import (
	"context"
	"time"
)

type Exam struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	CourseID  string     `gorm:"index" json:"course_id"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   time.Time  `gorm:"not null" json:"end_time"`
	Questions []Question `gorm:"foreignKey:ExamID" json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Question struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	ExamID        string `gorm:"index;not null" json:"exam_id"`
	Prompt        string `gorm:"not null" json:"prompt"`
	CorrectAnswer string `gorm:"not null" json:"-"`
	Position      int    `json:"position"`
}

type Submission struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExamID            string    `gorm:"index;not null" json:"exam_id"`
	StudentID         string    `gorm:"index;not null" json:"student_id"`
	Answers           []Answer  `gorm:"foreignKey:SubmissionID" json:"answers"`
	Score             float64   `json:"score"`
	Grade             string    `json:"grade"`
	Late              bool      `json:"late"`
	FlaggedSuspicious bool      `json:"flagged_suspicious"`
	SubmittedAt       time.Time `gorm:"not null" json:"submitted_at"`
}

type Answer struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	SubmissionID string `gorm:"index;not null" json:"submission_id"`
	QuestionID   string `gorm:"not null" json:"question_id"`
	Value        string `json:"value"`
}

type Repository interface {
	GetExam(ctx context.Context, id string) (*Exam, error)
	ListExams(ctx context.Context) ([]Exam, error)
	CreateSubmission(ctx context.Context, submission *Submission) error
	HasSubmission(ctx context.Context, examID, studentID string) (bool, error)
}
