// Package memorymap reads and writes the user's memory maps through the
// generic API client.
package memorymap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/felixgeelhaar/memorymap/internal/api"
	"github.com/felixgeelhaar/memorymap/internal/result"
)

// CollectionPath is the memory-map collection endpoint.
const CollectionPath = "/memory-maps/"

// MemoryMap is a memory-map record owned by the current user.
type MemoryMap struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         string    `json:"tags,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	InstagramURL string    `json:"instagram_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary returns the description or a placeholder.
func (m MemoryMap) Summary() string {
	if m.Description == "" {
		return "No description"
	}
	return m.Description
}

// Input holds the writable fields of a memory map.
type Input struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         string   `json:"tags,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	InstagramURL string   `json:"instagram_url,omitempty"`
}

// Validate will run validation rules
func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Tags, validation.Length(0, 500)),
		validation.Field(&in.LocationName, validation.Length(0, 255)),
		validation.Field(&in.InstagramURL, is.URL),
		validation.Field(&in.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&in.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// Requester is the subset of api.Client the service needs.
type Requester interface {
	Get(ctx context.Context, endpoint string) result.Result[json.RawMessage]
	Post(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage]
	Put(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage]
	Delete(ctx context.Context, endpoint string) result.Result[json.RawMessage]
}

// Service provides memory-map operations.
type Service struct {
	client Requester
}

// NewService creates a service over client.
func NewService(client Requester) *Service {
	return &Service{client: client}
}

// List returns the user's memory maps in backend order.
func (s *Service) List(ctx context.Context) result.Result[[]MemoryMap] {
	res := api.Decode[[]MemoryMap](s.client.Get(ctx, CollectionPath))
	return result.Map(res, func(maps []MemoryMap) ([]MemoryMap, error) {
		if maps == nil {
			maps = []MemoryMap{}
		}
		return maps, nil
	})
}

// Get returns a single memory map.
func (s *Service) Get(ctx context.Context, id int64) result.Result[MemoryMap] {
	return api.Decode[MemoryMap](s.client.Get(ctx, ItemPath(id)))
}

// Create adds a memory map.
func (s *Service) Create(ctx context.Context, in Input) result.Result[MemoryMap] {
	return api.Decode[MemoryMap](s.client.Post(ctx, CollectionPath, in))
}

// Update replaces the writable fields of a memory map.
func (s *Service) Update(ctx context.Context, id int64, in Input) result.Result[MemoryMap] {
	return api.Decode[MemoryMap](s.client.Put(ctx, ItemPath(id), in))
}

// Delete removes a memory map.
func (s *Service) Delete(ctx context.Context, id int64) result.Result[struct{}] {
	return result.Map(s.client.Delete(ctx, ItemPath(id)), func(json.RawMessage) (struct{}, error) {
		return struct{}{}, nil
	})
}

// ItemPath is the endpoint of a single memory map.
func ItemPath(id int64) string {
	return fmt.Sprintf("%s%d/", CollectionPath, id)
}
