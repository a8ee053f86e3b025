package device

import (
	"sync"

	"github.com/google/uuid"
)

// Info describes one registered device.
type Info struct {
	// ID is the registry identifier, assigned at registration.
	ID string `json:"id"`

	// UID is the controller serial number, unique per physical unit.
	// Mixer sub-devices derive theirs from the parent UID.
	UID string `json:"uid"`

	// ParentID links a sub-device to its controller's registry entry.
	// Empty for the controller itself.
	ParentID string `json:"parent_id,omitempty"`

	Name         string `json:"name"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Software     string `json:"software,omitempty"`
}

// Lookup is the read side of the registry, injected into consumers
// that only resolve identifiers.
type Lookup interface {
	// GetByUID resolves a device by its serial UID. Returns
	// ErrNotFound when the UID has not been registered.
	GetByUID(uid string) (*Info, error)
}

// Registry holds registered devices in memory.
//
// All public methods are thread-safe.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*Info
	byUID map[string]string // uid -> id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  make(map[string]*Info),
		byUID: make(map[string]string),
	}
}

// Register adds a device, assigning an ID when the caller left it
// empty. Registering the same UID with the same ID updates the entry
// in place; a different ID for an existing UID is ErrUIDConflict.
func (r *Registry) Register(info *Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info.ID == "" {
		info.ID = uuid.New().String()
	}

	if existing, ok := r.byUID[info.UID]; ok && existing != info.ID {
		return ErrUIDConflict
	}

	stored := *info
	r.byID[info.ID] = &stored
	r.byUID[info.UID] = info.ID
	return nil
}

// GetByID resolves a device by registry identifier.
func (r *Registry) GetByID(id string) (*Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *info
	return &out, nil
}

// GetByUID resolves a device by serial UID.
func (r *Registry) GetByUID(uid string) (*Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUID[uid]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// List returns copies of all registered devices.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.byID))
	for _, info := range r.byID {
		out = append(out, *info)
	}
	return out
}

// Children returns the sub-devices registered under a parent entry.
func (r *Registry) Children(parentID string) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Info
	for _, info := range r.byID {
		if info.ParentID == parentID {
			out = append(out, *info)
		}
	}
	return out
}

// Remove deletes a device and its sub-devices.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}

	delete(r.byID, id)
	delete(r.byUID, info.UID)
	for childID, child := range r.byID {
		if child.ParentID == id {
			delete(r.byID, childID)
			delete(r.byUID, child.UID)
		}
	}
	return nil
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
