// Package gcv is the Google Cloud Vision engine.
package gcv

import (
	"context"
	"errors"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// Annotator is the subset of vision.ImageAnnotatorClient the engine uses.
type Annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

var ErrNoResponse = errors.New("vision: empty batch response")

type Engine struct {
	client Annotator
}

// New dials Cloud Vision. Credentials are resolved by the SDK from the
// environment unless opts say otherwise.
func New(ctx context.Context, opts ...option.ClientOption) (*Engine, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return NewWithAnnotator(c), nil
}

func NewWithAnnotator(c Annotator) *Engine {
	return &Engine{client: c}
}

func (e *Engine) Name() string { return "gcv" }

func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) DetectText(ctx context.Context, image []byte) (string, error) {
	res, err := e.annotate(ctx, image, visionpb.Feature_TEXT_DETECTION, 0)
	if err != nil {
		return "", err
	}
	// The first annotation carries the whole detected text block.
	if anns := res.GetTextAnnotations(); len(anns) > 0 {
		return anns[0].GetDescription(), nil
	}
	return "", nil
}

func (e *Engine) DetectLabels(ctx context.Context, image []byte, max int) ([]string, error) {
	res, err := e.annotate(ctx, image, visionpb.Feature_LABEL_DETECTION, max)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(res.GetLabelAnnotations()))
	for _, l := range res.GetLabelAnnotations() {
		labels = append(labels, l.GetDescription())
	}
	return labels, nil
}

func (e *Engine) LocalizeObjects(ctx context.Context, image []byte) ([]string, error) {
	res, err := e.annotate(ctx, image, visionpb.Feature_OBJECT_LOCALIZATION, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.GetLocalizedObjectAnnotations()))
	for _, o := range res.GetLocalizedObjectAnnotations() {
		names = append(names, o.GetName())
	}
	return names, nil
}

func (e *Engine) annotate(ctx context.Context, image []byte, ftype visionpb.Feature_Type, maxResults int) (*visionpb.AnnotateImageResponse, error) {
	batch, err := e.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: ftype, MaxResults: int32(maxResults)}},
		}},
	})
	if err != nil {
		return nil, err
	}
	if len(batch.GetResponses()) == 0 {
		return nil, ErrNoResponse
	}
	res := batch.GetResponses()[0]
	// Per-image failures come back inside a successful batch response.
	if res.GetError() != nil {
		return nil, status.ErrorProto(res.GetError())
	}
	return res, nil
}
