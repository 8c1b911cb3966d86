package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

type QARequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

type SummarySaveRequest struct {
	Summary string `json:"summary" validate:"required"`
}

type SummarizeRequest struct {
	TargetWords int `json:"target_words" validate:"omitempty,min=50,max=1200"`
}

type RollbackRequest struct {
	VersionIndex int `json:"version_index" validate:"min=0"`
}

func (params *QARequest) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SummarySaveRequest) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SummarizeRequest) Validate() map[string]string {
	return validateStruct(params)
}

func (params *RollbackRequest) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(v any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type DocumentCreateResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
}

type SummaryResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Summary    string `json:"summary"`
}

type VersionItem struct {
	Index      int              `json:"index"`
	CreatedAt  time.Time        `json:"created_at"`
	Note       string           `json:"note"`
	WordCount  int              `json:"word_count"`
	Validation ValidationReport `json:"validation"`
}

type QAResponse struct {
	Answer     string           `json:"answer"`
	Sources    []string         `json:"sources"`
	Validation ValidationReport `json:"validation"`
	Timestamp  time.Time        `json:"timestamp"`
}

type MCPSearchResult struct {
	DocID    string  `json:"doc_id"`
	ChunkIdx int     `json:"chunk_idx"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type QARecord struct {
	Timestamp  time.Time        `json:"ts"`
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Sources    []string         `json:"sources"`
	Validation ValidationReport `json:"validation"`
}
