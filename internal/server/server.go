// Package server implements the gRPC edit store service
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/nainya/editstore/internal/logger"
	"github.com/nainya/editstore/internal/metrics"
	"github.com/nainya/editstore/pkg/metadata"
	"github.com/nainya/editstore/pkg/notify"
	"github.com/nainya/editstore/pkg/update"
)

// Options configures a Server
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	// UndoTimeout applies to discards that do not carry their own timeout
	UndoTimeout time.Duration
	// Renderers defaults to metadata.NewRenderers()
	Renderers *metadata.Renderers
}

// Server implements EditServiceServer over an update.Service
type Server struct {
	service   *update.Service
	center    *notify.Center
	renderers *metadata.Renderers
	metrics   *metrics.Metrics
	log       *logger.Logger

	undoTimeout time.Duration
	startTime   time.Time

	mu        sync.RWMutex
	originals map[string][]update.Identifiable
}

var (
	_ EditServiceServer = (*Server)(nil)
	_ update.Loggers    = (*logger.Logger)(nil)
)

// NewServer creates a server with its own edit tracking service
func NewServer(opts Options) *Server {
	s := &Server{
		center:      notify.NewCenter(),
		renderers:   opts.Renderers,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		undoTimeout: opts.UndoTimeout,
		startTime:   time.Now(),
		originals:   make(map[string][]update.Identifiable),
	}
	if s.log == nil {
		s.log = logger.NewLogger(logger.Config{Level: "error"})
	}
	if s.renderers == nil {
		s.renderers = metadata.NewRenderers()
	}

	s.service = update.NewService(update.Options{
		Logger:        s.log,
		Notifications: s.center,
		OnAction:      s.onAction,
		OnUndo:        s.onUndo,
	})
	return s
}

// Close stops pending undo windows
func (s *Server) Close() {
	s.service.Close()
}

func (s *Server) onAction(action update.ActionType, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAction(string(action), err)
	s.metrics.SetTrackedEntries(len(s.service.Store().State()))
}

func (s *Server) onUndo(url string, outcome update.Outcome) {
	s.log.LogUndoOutcome(url, string(outcome))
	if s.metrics != nil {
		s.metrics.RecordUndoOutcome(string(outcome))
	}
}

// ========== Requests ==========

type initializeRequest struct {
	URL          string       `json:"url"`
	LastModified string       `json:"last_modified"`
	Metadata     metadata.Map `json:"metadata"`
}

type fieldUpdateRequest struct {
	URL        string             `json:"url"`
	ChangeType update.ChangeType  `json:"change_type"`
	Field      metadata.Metadatum `json:"field"`
}

type fieldStateRequest struct {
	URL      string `json:"url"`
	UUID     string `json:"uuid"`
	Editable *bool  `json:"editable"`
	Valid    *bool  `json:"valid"`
}

type discardRequest struct {
	URL       string `json:"url"`
	All       bool   `json:"all"`
	TimeoutMS *int64 `json:"timeout_ms"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

type dismissRequest struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

type fieldRequest struct {
	URL  string `json:"url"`
	UUID string `json:"uuid"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type fieldUpdateView struct {
	UUID       string             `json:"uuid"`
	ChangeType update.ChangeType  `json:"change_type"`
	Field      metadata.Metadatum `json:"field"`
	Display    string             `json:"display"`
}

// decode maps a Struct request onto out through its JSON form
func decode(in *structpb.Struct, out any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

// encode turns v into a Struct through its JSON form
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// parseTimestamp reads the protobuf JSON form of a Timestamp. Empty is the
// zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts := new(timestamppb.Timestamp)
	if err := protojson.Unmarshal([]byte(strconv.Quote(s)), ts); err != nil {
		return time.Time{}, err
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, err
	}
	return ts.AsTime(), nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	raw, err := protojson.Marshal(timestamppb.New(t))
	if err != nil {
		return ""
	}
	unquoted, err := strconv.Unquote(string(raw))
	if err != nil {
		return ""
	}
	return unquoted
}

// toStatus maps engine errors to gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, update.ErrNoEntry), errors.Is(err, update.ErrUnknownField):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, update.ErrNothingToReinstate):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, metadata.ErrIllegalChange), errors.Is(err, metadata.ErrNotMetadatum):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func requireURL(url string) error {
	if url == "" {
		return status.Error(codes.InvalidArgument, "url is required")
	}
	return nil
}

// ========== Edit Tracking ==========

func (s *Server) Initialize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req initializeRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	lastModified, err := parseTimestamp(req.LastModified)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid last_modified: %v", err)
	}

	md := req.Metadata.Metadata()
	fields := make([]update.Identifiable, len(md))
	for i, m := range md {
		fields[i] = m
	}

	s.mu.Lock()
	s.originals[req.URL] = fields
	s.mu.Unlock()

	if err := s.service.Initialize(req.URL, fields, lastModified, metadata.PatchCompiler{}); err != nil {
		return nil, toStatus(err)
	}
	if md == nil {
		md = []metadata.Metadatum{}
	}
	return encode(map[string]any{"fields": md})
}

func (s *Server) SaveFieldUpdate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req fieldUpdateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	if !req.ChangeType.Valid() {
		return nil, status.Error(codes.InvalidArgument, "change_type must be ADD, UPDATE or REMOVE")
	}
	if req.Field.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "field.key is required")
	}

	field := req.Field
	if field.UUID == "" {
		if req.ChangeType != update.ChangeAdd {
			return nil, status.Error(codes.InvalidArgument, "field.uuid is required")
		}
		field = metadata.NewMetadatum(field.Key, field.Value)
	}

	if err := s.service.SaveFieldUpdate(req.URL, field, req.ChangeType); err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"uuid": field.UUID})
}

func (s *Server) SetFieldState(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	var req fieldStateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	if req.Editable == nil && req.Valid == nil {
		return nil, status.Error(codes.InvalidArgument, "editable or valid is required")
	}

	if req.Editable != nil {
		if err := s.service.SetEditableFieldUpdate(req.URL, req.UUID, *req.Editable); err != nil {
			return nil, toStatus(err)
		}
	}
	if req.Valid != nil {
		if err := s.service.SetValidFieldUpdate(req.URL, req.UUID, *req.Valid); err != nil {
			return nil, toStatus(err)
		}
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Discard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req discardRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}

	timeout := s.undoTimeout
	if req.TimeoutMS != nil {
		if *req.TimeoutMS < 0 {
			return nil, status.Error(codes.InvalidArgument, "timeout_ms must not be negative")
		}
		timeout = time.Duration(*req.TimeoutMS) * time.Millisecond
	}

	n := s.center.Add(notify.New(req.Title, req.Content, timeout))

	var err error
	if req.All {
		err = s.service.DiscardAllFieldUpdates(req.URL, n)
	} else {
		err = s.service.DiscardFieldUpdates(req.URL, n)
	}
	if err != nil {
		s.center.Remove(n.ID)
		return nil, toStatus(err)
	}

	return encode(map[string]any{
		"notification_id": n.ID,
		"timeout_ms":      timeout.Milliseconds(),
	})
}

func (s *Server) Reinstate(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	var req urlRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	if err := s.service.ReinstateFieldUpdates(req.URL); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) DismissNotification(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	var req dismissRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	switch {
	case req.All:
		s.center.RemoveAll()
	case req.ID != "":
		s.center.Remove(req.ID)
	default:
		return nil, status.Error(codes.InvalidArgument, "id or all is required")
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) RemoveFieldUpdate(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	var req fieldRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	if err := s.service.RemoveSingleFieldUpdate(req.URL, req.UUID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) GetFieldUpdates(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req urlRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}
	if _, ok := s.service.Store().State().Live(req.URL); !ok {
		return nil, status.Errorf(codes.NotFound, "%s is not tracked", req.URL)
	}

	s.mu.RLock()
	originals := s.originals[req.URL]
	s.mu.RUnlock()

	updates := s.service.GetFieldUpdates(req.URL, originals, false).Value()
	views := make([]fieldUpdateView, 0, updates.Len())
	for uuid, fu := range updates.All() {
		md, ok := fu.Field.(metadata.Metadatum)
		if !ok {
			return nil, status.Errorf(codes.Internal, "field %s is %T", uuid, fu.Field)
		}
		views = append(views, fieldUpdateView{
			UUID:       uuid,
			ChangeType: fu.ChangeType,
			Field:      md,
			Display:    metadata.Render(s.renderers, md, "", metadata.ContextEditPage),
		})
	}

	return encode(map[string]any{
		"updates":       views,
		"has_updates":   s.service.HasUpdates(req.URL).Value(),
		"reinstatable":  s.service.IsReinstatable(req.URL).Value(),
		"valid":         s.service.IsValidPage(req.URL).Value(),
		"last_modified": formatTimestamp(s.service.GetLastModified(req.URL).Value()),
	})
}

func (s *Server) CompilePatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req urlRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := requireURL(req.URL); err != nil {
		return nil, err
	}

	ops, err := s.service.CompilePatch(req.URL)
	if err != nil {
		return nil, toStatus(fmt.Errorf("compile %s: %w", req.URL, err))
	}

	list, err := ops.ToListValue()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode patch: %v", err)
	}
	if s.metrics != nil {
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = string(op.Op)
		}
		s.metrics.RecordPatchOps(names)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"operations": structpb.NewListValue(list),
	}}, nil
}

func (s *Server) Status(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	state := s.service.Store().State()
	live, trash := 0, 0
	for key := range state {
		if update.IsTrashKey(key) {
			trash++
		} else {
			live++
		}
	}

	return encode(map[string]any{
		"status":               "healthy",
		"tracked_urls":         live,
		"trash_entries":        trash,
		"active_notifications": len(s.center.Active()),
		"uptime_seconds":       int64(time.Since(s.startTime).Seconds()),
		"started_at":           formatTimestamp(s.startTime),
	})
}
