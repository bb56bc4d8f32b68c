package feed

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedmix/internal/repository"
	"github.com/d60-Lab/feedmix/pkg/logger"
	"github.com/d60-Lab/feedmix/pkg/telemetry"
)

const tracerName = "github.com/d60-Lab/feedmix/internal/feed"

// Service 组装 feed：解析、按作者交错、批次合并、读取时间线
type Service struct {
	resolver      *Resolver
	inbox         repository.InboxRepository
	timelineLimit int
	tracer        trace.Tracer
}

func NewService(resolver *Resolver, inbox repository.InboxRepository, timelineLimit int) *Service {
	if timelineLimit <= 0 {
		timelineLimit = 50
	}
	return &Service{
		resolver:      resolver,
		inbox:         inbox,
		timelineLimit: timelineLimit,
		tracer:        otel.Tracer(tracerName),
	}
}

// Posts 按输入位置返回富化结果，不存在的条目为 nil
func (s *Service) Posts(ctx context.Context, viewerID int64, postIDs []int64) (res []*EnrichedItem, err error) {
	ctx, span := s.start(ctx, "feed.Posts", viewerID, len(postIDs))
	defer func() { s.finish(span, viewerID, err) }()

	return s.resolver.Resolve(ctx, viewerID, postIDs)
}

// Mixed 解析后丢弃缺失条目，再按作者轮转交错，避免同一作者连续占屏
func (s *Service) Mixed(ctx context.Context, viewerID int64, postIDs []int64) (res []*EnrichedItem, err error) {
	ctx, span := s.start(ctx, "feed.Mixed", viewerID, len(postIDs))
	defer func() { s.finish(span, viewerID, err) }()

	items, err := s.resolver.Resolve(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}
	return InterleaveByOwner(items), nil
}

// Merged 一次解析所有批次（viewer 只校验一次），按批次拆回后合并并整体倒序
func (s *Service) Merged(ctx context.Context, viewerID int64, batches [][]int64) (res []*EnrichedItem, err error) {
	total := 0
	for _, b := range batches {
		total += len(b)
	}
	ctx, span := s.start(ctx, "feed.Merged", viewerID, total)
	span.SetAttributes(attribute.Int("feed.batches", len(batches)))
	defer func() { s.finish(span, viewerID, err) }()

	flat := make([]int64, 0, total)
	for _, b := range batches {
		flat = append(flat, b...)
	}
	items, err := s.resolver.Resolve(ctx, viewerID, flat)
	if err != nil {
		return nil, err
	}

	resolved := make([][]*EnrichedItem, len(batches))
	off := 0
	for i, b := range batches {
		resolved[i] = Compact(items[off : off+len(b)])
		off += len(b)
	}
	return Merge(resolved), nil
}

// Timeline 读取 inbox 第一页并交错
func (s *Service) Timeline(ctx context.Context, viewerID int64) (res []*EnrichedItem, err error) {
	ctx, span := s.start(ctx, "feed.Timeline", viewerID, s.timelineLimit)
	defer func() { s.finish(span, viewerID, err) }()

	ids, err := s.inbox.ListPostIDs(ctx, viewerID, s.timelineLimit)
	if err != nil {
		return nil, &StoreError{Op: OpListInbox, ID: viewerID, Err: err}
	}
	items, err := s.resolver.Resolve(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	return InterleaveByOwner(items), nil
}

func (s *Service) start(ctx context.Context, name string, viewerID int64, n int) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("feed.viewer_id", viewerID),
		attribute.Int("feed.requested", n),
	))
}

func (s *Service) finish(span trace.Span, viewerID int64, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, ErrViewerNotFound) {
		logger.Info("feed viewer not found", zap.Int64("viewer_id", viewerID))
		return
	}
	logger.Error("feed store lookup failed", zap.Int64("viewer_id", viewerID), zap.Error(err))
	telemetry.CaptureError(err)
}
