package catalog

import (
	"context"

	"github.com/cuemby/cri-mcp/pkg/schema"
	runtimeapi "k8s.io/cri-api/pkg/apis/runtime/v1"
)

func imageArg() schema.Field {
	return schema.Str("image", "Image reference, e.g. docker.io/library/busybox:latest, or image ID").Req()
}

func imageEntries() []*Entry {
	return []*Entry{
		{
			Name:        "list_images",
			Group:       GroupImages,
			Description: "List images known to the runtime, optionally only those matching an image reference.",
			Args: schema.NewArgs(
				schema.Str("image", "Only images matching this reference"),
			),
			Result:     "{images: [{id, repo_tags, repo_digests, size, uid, username, pinned}]}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ListImagesRequest, error) {
					req := &runtimeapi.ListImagesRequest{}
					if ref := args.String("image"); ref != "" {
						req.Filter = &runtimeapi.ImageFilter{Image: &runtimeapi.ImageSpec{Image: ref}}
					}
					return req, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ListImagesRequest) (*runtimeapi.ListImagesResponse, error) {
					return svc.Image.ListImages(ctx, req)
				},
				func(resp *runtimeapi.ListImagesResponse) (any, error) {
					images := []imageView{}
					for _, img := range resp.GetImages() {
						images = append(images, toImageView(img))
					}
					return map[string]any{"images": images}, nil
				},
			),
		},
		{
			Name:        "image_status",
			Group:       GroupImages,
			Description: "Show an image's ID, tags, digests and size. present is false when the runtime does not have the image.",
			Args: schema.NewArgs(
				imageArg(),
				schema.Bool("verbose", "Include runtime specific info").WithDefault(false),
			),
			Result:     "{present, image: {id, repo_tags, repo_digests, size, uid, username, pinned} | null, info}",
			ReadOnly:   true,
			Idempotent: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.ImageStatusRequest, error) {
					return &runtimeapi.ImageStatusRequest{
						Image:   &runtimeapi.ImageSpec{Image: args.String("image")},
						Verbose: args.Bool("verbose"),
					}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ImageStatusRequest) (*runtimeapi.ImageStatusResponse, error) {
					return svc.Image.ImageStatus(ctx, req)
				},
				func(resp *runtimeapi.ImageStatusResponse) (any, error) {
					var image *imageView
					if resp.GetImage() != nil {
						v := toImageView(resp.GetImage())
						image = &v
					}
					return map[string]any{
						"present": image != nil,
						"image":   image,
						"info":    emptyMap(resp.GetInfo()),
					}, nil
				},
			),
		},
		{
			Name:        "pull_image",
			Group:       GroupImages,
			Description: "Pull an image from its registry and return the resolved image reference. Credentials are passed to the runtime only.",
			Args: schema.NewArgs(
				imageArg(),
				schema.Obj("auth", "Registry credentials",
					schema.Str("username", "Registry user"),
					schema.Str("password", "Registry password"),
					schema.Str("auth", "Base64 encoded user:password"),
					schema.Str("server_address", "Registry address"),
					schema.Str("identity_token", "Token to obtain a registry token"),
					schema.Str("registry_token", "Bearer token for the registry"),
				),
			),
			Result:      "{image_ref}",
			Idempotent:  true,
			LongRunning: true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.PullImageRequest, error) {
					req := &runtimeapi.PullImageRequest{
						Image: &runtimeapi.ImageSpec{Image: args.String("image")},
					}
					if auth := args.Object("auth"); auth != nil {
						req.Auth = &runtimeapi.AuthConfig{
							Username:      auth.String("username"),
							Password:      auth.String("password"),
							Auth:          auth.String("auth"),
							ServerAddress: auth.String("server_address"),
							IdentityToken: auth.String("identity_token"),
							RegistryToken: auth.String("registry_token"),
						}
					}
					return req, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.PullImageRequest) (*runtimeapi.PullImageResponse, error) {
					return svc.Image.PullImage(ctx, req)
				},
				func(resp *runtimeapi.PullImageResponse) (any, error) {
					return map[string]any{"image_ref": resp.GetImageRef()}, nil
				},
			),
		},
		{
			Name:        "remove_image",
			Group:       GroupImages,
			Description: "Remove an image. Removing an absent image succeeds.",
			Args:        schema.NewArgs(imageArg()),
			Result:      "{image}",
			Destructive: true,
			Idempotent:  true,
			binding: bind(
				func(args schema.Values) (*runtimeapi.RemoveImageRequest, error) {
					return &runtimeapi.RemoveImageRequest{Image: &runtimeapi.ImageSpec{Image: args.String("image")}}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.RemoveImageRequest) (string, error) {
					_, err := svc.Image.RemoveImage(ctx, req)
					return req.GetImage().GetImage(), err
				},
				func(ref string) (any, error) {
					return map[string]any{"image": ref}, nil
				},
			),
		},
		{
			Name:        "image_fs_info",
			Group:       GroupImages,
			Description: "Show usage of the filesystems that store images and container writable layers.",
			Args:        schema.NewArgs(),
			Result:      "{image_filesystems: [{timestamp, mountpoint, used_bytes, inodes_used}], container_filesystems: [...]}",
			ReadOnly:    true,
			Idempotent:  true,
			binding: bind(
				func(schema.Values) (*runtimeapi.ImageFsInfoRequest, error) {
					return &runtimeapi.ImageFsInfoRequest{}, nil
				},
				func(ctx context.Context, svc *Services, req *runtimeapi.ImageFsInfoRequest) (*runtimeapi.ImageFsInfoResponse, error) {
					return svc.Image.ImageFsInfo(ctx, req)
				},
				func(resp *runtimeapi.ImageFsInfoResponse) (any, error) {
					return map[string]any{
						"image_filesystems":     toFsUsageViews(resp.GetImageFilesystems()),
						"container_filesystems": toFsUsageViews(resp.GetContainerFilesystems()),
					}, nil
				},
			),
		},
	}
}
