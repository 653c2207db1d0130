package core

import (
	"context"

	"github.com/edvin/fedreg/internal/graph"
	"github.com/edvin/fedreg/internal/model"
)

type ImageService struct {
	*Resource[model.Image, model.ImageUpdate]
	c *cruds
}

func NewImageService(store graph.Store, c *cruds) *ImageService {
	r := newResource[model.Image, model.ImageUpdate](store, c.images,
		link{key: "services", rel: relServiceImages},
		link{key: "projects", rel: relProjectImages},
	)
	r.check = func(ctx context.Context, tx graph.Tx, cur model.Image, in model.ImageUpdate) error {
		if in.IsPublic != nil && *in.IsPublic != cur.IsPublic {
			return newError(ErrInvalidTransition, "Image visibility can't be changed")
		}
		return checkServiceScoped(ctx, tx, c.images, relServiceImages, cur.UID,
			cur.Name, in.Name, cur.UUID, in.UUID,
			func(i model.Image) (string, string) { return i.Name, i.UUID })
	}
	return &ImageService{Resource: r, c: c}
}

func (s *ImageService) ConnectProject(ctx context.Context, imageUID, projectUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.images, relProjectImages, projectUID, imageUID, imagePrivate, true)
}

func (s *ImageService) DisconnectProject(ctx context.Context, imageUID, projectUID string) (bool, error) {
	return linkPrivate(ctx, s.store, s.c.projects, s.c.images, relProjectImages, projectUID, imageUID, imagePrivate, false)
}
