package service

import (
	"context"
	"log"

	"agent-gw-poc/internal/contract"
	"agent-gw-poc/internal/dsl"
	"agent-gw-poc/internal/executor"
	"agent-gw-poc/internal/tasks"
)

// AnalyzeFunc kicks off analysis for one freshly created document.
type AnalyzeFunc func(ctx context.Context, documentID string)

// DocumentsService wraps the documents resource. A successful create
// triggers analysis through the task pool, fire-and-forget.
type DocumentsService struct {
	*BaseService
	pool    *tasks.Pool
	analyze AnalyzeFunc
}

// NewDocumentsService builds a service over the documents resource. pool
// and analyze may be nil when no post-create trigger is wanted.
func NewDocumentsService(reg *contract.Registry, role string, exec *executor.Executor, pool *tasks.Pool, analyze AnalyzeFunc) (*DocumentsService, error) {
	base, err := NewBaseService(reg, role, "documents", exec)
	if err != nil {
		return nil, err
	}
	return &DocumentsService{BaseService: base, pool: pool, analyze: analyze}, nil
}

// CreateDocument registers an uploaded document and, on success, schedules
// its analysis. A saturated pool drops the trigger with a log line rather
// than blocking or failing the create.
func (s *DocumentsService) CreateDocument(ctx context.Context, values map[string]interface{}) *Result {
	if _, ok := values["status"]; !ok {
		values["status"] = "PENDING"
	}
	result := s.Create(ctx, values)
	if !result.Success || s.pool == nil || s.analyze == nil {
		return result
	}

	documentID, ok := insertedID(result, "document_id")
	if !ok {
		return result
	}
	submitted := s.pool.Submit(func(taskCtx context.Context) {
		s.analyze(taskCtx, documentID)
	})
	if !submitted {
		log.Printf("analysis trigger dropped for document %s, pool saturated", documentID)
	}
	return result
}

// GetDocumentByID fetches one document.
func (s *DocumentsService) GetDocumentByID(ctx context.Context, documentID string) *Result {
	return s.GetByID(ctx, documentID)
}

// GetDocumentsByCase lists a case's documents, newest first.
func (s *DocumentsService) GetDocumentsByCase(ctx context.Context, caseID string) *Result {
	return s.Read(ctx, nil,
		[]dsl.WhereClause{{Field: "case_id", Op: "=", Value: caseID}},
		[]dsl.OrderByClause{{Field: "created_at", Dir: "desc"}},
		0, 0)
}

// GetDocumentsByStatus lists documents in one processing state.
func (s *DocumentsService) GetDocumentsByStatus(ctx context.Context, status string, limit int) *Result {
	return s.GetByField(ctx, "status", status, limit)
}

// GetDocumentsByBatch lists documents uploaded together.
func (s *DocumentsService) GetDocumentsByBatch(ctx context.Context, batchID string) *Result {
	return s.GetByField(ctx, "batch_id", batchID, 0)
}

// UpdateDocumentStatus moves a document to a new processing state.
func (s *DocumentsService) UpdateDocumentStatus(ctx context.Context, documentID, status string) *Result {
	return s.Update(ctx, documentID, map[string]interface{}{"status": status})
}

// UpdateProcessedInfo records the processed artifact's location and size.
func (s *DocumentsService) UpdateProcessedInfo(ctx context.Context, documentID string, fileName string, fileSize int, s3Location, s3Key string) *Result {
	return s.Update(ctx, documentID, map[string]interface{}{
		"processed_file_name":   fileName,
		"processed_file_size":   fileSize,
		"processed_s3_location": s3Location,
		"processed_s3_key":      s3Key,
		"status":                "COMPLETED",
	})
}

// insertedID pulls a string column out of a single-row write result.
func insertedID(result *Result, column string) (string, bool) {
	if len(result.Data) == 0 {
		return "", false
	}
	id, ok := result.Data[0][column].(string)
	return id, ok && id != ""
}
