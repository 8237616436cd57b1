package v1

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/replayd/internal/frames"
	"github.com/gosuda/replayd/internal/replay"
)

const frameCacheControl = "public, max-age=31536000, immutable"

type ListFramesInput struct {
	ID        string `path:"id" minLength:"1" maxLength:"128" doc:"Session ID"`
	Signed    bool   `query:"signed" doc:"Return presigned object storage URLs instead of proxy URLs"`
	MaxFrames int    `query:"maxFrames" minimum:"0" maximum:"10000" doc:"Upper bound on returned frames, 0 for the extractor default"`
}

type ListFramesOutput struct {
	Body *frames.FrameSet
}

type GetFrameInput struct {
	ID  string `path:"id" minLength:"1" maxLength:"128" doc:"Session ID"`
	Key string `query:"key" required:"true" minLength:"1" doc:"Object key of the frame"`
}

type GetFrameOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	XCache       string `header:"X-Cache"`
	Body         []byte
}

// FrameProxyPath is the proxy URL handed out for frames without a direct URL.
func FrameProxyPath(sessionID, key string) string {
	return "/api/v1/sessions/" + url.PathEscape(sessionID) + "/frame?key=" + url.QueryEscape(key)
}

func RegisterFrameRoutes(api huma.API, authz SessionAuthorizer, catalog FrameCatalog, fetcher FrameFetcher) {
	huma.Register(api, huma.Operation{
		OperationID: "list-session-frames",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/frames",
		Summary:     "List the replay frames of a session",
		Tags:        []string{"Frames"},
	}, func(ctx context.Context, input *ListFramesInput) (*ListFramesOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		set := catalog.List(ctx, s, replay.FrameListOptions{
			Signed:    input.Signed,
			MaxFrames: input.MaxFrames,
			ProxyURL: func(key string) string {
				return FrameProxyPath(s.ID, key)
			},
		})

		return &ListFramesOutput{Body: set}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session-frame",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}/frame",
		Summary:     "Get the image bytes of one frame",
		Tags:        []string{"Frames"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "JPEG frame",
				Content:     map[string]*huma.MediaType{"image/jpeg": {}},
			},
		},
	}, func(ctx context.Context, input *GetFrameInput) (*GetFrameOutput, error) {
		s, err := authorizedSession(ctx, authz, input.ID)
		if err != nil {
			return nil, err
		}

		if !s.OwnsObjectKey(input.Key) {
			return nil, huma.Error404NotFound("frame not found")
		}

		data, hit, err := fetcher.Fetch(ctx, s.ProjectID, input.Key)
		if err != nil {
			log.Warn().Err(err).Str("session_id", s.ID).Str("key", input.Key).Msg("frames: fetch failed")
			return nil, huma.Error404NotFound("frame not found")
		}

		xcache := "MISS"
		if hit {
			xcache = "HIT"
		}

		return &GetFrameOutput{
			ContentType:  "image/jpeg",
			CacheControl: frameCacheControl,
			XCache:       xcache,
			Body:         data,
		}, nil
	})
}
