package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/logger"
)

const (
	defaultChunkSize = 10 << 20
	maxCaptionRunes  = 2200
)

type postInfo struct {
	Title                 string `json:"title"`
	PrivacyLevel          string `json:"privacy_level"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableComment        bool   `json:"disable_comment"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int64  `json:"total_chunk_count"`
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// chunkPlan sends small files whole; larger ones in 10MB chunks where the last chunk absorbs the remainder.
func chunkPlan(size int64) (chunkSize, count int64) {
	if size <= defaultChunkSize {
		return size, 1
	}
	return defaultChunkSize, size / defaultChunkSize
}

func captionFor(req model.UploadRequest) string {
	text := req.Caption
	if text == "" {
		text = req.Title
	}
	runes := []rune(text)
	if len(runes) > maxCaptionRunes {
		return string(runes[:maxCaptionRunes])
	}
	return text
}

// UploadVideo initializes a direct post and streams the file to the returned upload URL.
func (c *Client) UploadVideo(ctx context.Context, accessToken string, req model.UploadRequest) (*model.UploadResult, error) {
	if err := c.uploads.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: upload throttle: %w", model.ErrTransientIO, err)
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()
	if size == 0 {
		return nil, fmt.Errorf("video file %s is empty", req.FilePath)
	}
	chunkSize, chunks := chunkPlan(size)

	payload, err := json.Marshal(initRequest{
		PostInfo: postInfo{
			Title:                 captionFor(req),
			PrivacyLevel:          c.cfg.PrivacyLevel,
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       chunkSize,
			TotalChunkCount: chunks,
		},
	})
	if err != nil {
		return nil, err
	}
	initReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/post/publish/video/init/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	initReq.Header.Set("Content-Type", "application/json; charset=UTF-8")

	var raw json.RawMessage
	if err := c.do(c.authorized(ctx, accessToken), initReq, &raw); err != nil {
		return nil, err
	}
	var init initResponse
	if err := json.Unmarshal(raw, &init); err != nil {
		return nil, fmt.Errorf("%w: decode init response: %w", model.ErrUpstreamRejected, err)
	}
	if init.Error.failed() {
		return nil, fmt.Errorf("%w: %s: %s", model.ErrUpstreamRejected, init.Error.Code, init.Error.Message)
	}
	if init.Data.UploadURL == "" || init.Data.PublishID == "" {
		return nil, fmt.Errorf("%w: init response missing upload_url or publish_id", model.ErrUpstreamRejected)
	}

	for i := int64(0); i < chunks; i++ {
		start := i * chunkSize
		end := start + chunkSize - 1
		if i == chunks-1 {
			end = size - 1
		}
		if err := c.putChunk(ctx, init.Data.UploadURL, io.NewSectionReader(file, start, end-start+1), start, end, size); err != nil {
			return nil, err
		}
	}

	logger.GetLogger().
		WithField("publish_id", init.Data.PublishID).
		WithField("bytes", size).
		WithField("chunks", chunks).
		Info("TikTok upload completed")
	return &model.UploadResult{ExternalVideoID: init.Data.PublishID, Raw: raw}, nil
}

func (c *Client) putChunk(ctx context.Context, uploadURL string, body io.Reader, start, end, total int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.ContentLength = end - start + 1
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
	return c.do(c.httpClient, req, nil)
}
