package fake

import (
	"context"

	"github.com/xaionaro-go/vasurface/backend"
	"github.com/xaionaro-go/vasurface/types"
)

func (hw *Hardware) CreateConfig(
	ctx context.Context,
	profile types.Profile,
) (_ret types.ConfigID, _err error) {
	_ret = types.InvalidID
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpCreateConfig); _err != nil {
			return
		}
		if !profile.IsKnown() {
			_err = backend.NewErrStatus(string(OpCreateConfig), backend.StatusUnsupportedProfile, "%s", profile)
			return
		}
		_ret = types.ConfigID(hw.newIDLocked())
		hw.configs[_ret] = profile
	})
	return
}

func (hw *Hardware) DestroyConfig(
	ctx context.Context,
	config types.ConfigID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpDestroyConfig); _err != nil {
			return
		}
		if _, ok := hw.configs[config]; !ok {
			_err = backend.NewErrStatus(string(OpDestroyConfig), backend.StatusInvalidConfig, "%d", uint32(config))
			return
		}
		for id, c := range hw.contexts {
			if c.config == config {
				_err = backend.NewErrStatus(string(OpDestroyConfig), backend.StatusOperationFailed,
					"the config is used by the decoding context %d", uint32(id))
				return
			}
		}
		delete(hw.configs, config)
	})
	return
}

func (hw *Hardware) CreateContext(
	ctx context.Context,
	config types.ConfigID,
	width, height uint32,
	surfaces []types.SurfaceID,
) (_ret types.ContextID, _err error) {
	_ret = types.InvalidID
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpCreateContext); _err != nil {
			return
		}
		if _, ok := hw.configs[config]; !ok {
			_err = backend.NewErrStatus(string(OpCreateContext), backend.StatusInvalidConfig, "%d", uint32(config))
			return
		}
		for _, id := range surfaces {
			s, ok := hw.surfaces[id]
			if !ok {
				_err = backend.NewErrStatus(string(OpCreateContext), backend.StatusInvalidSurface, "%s", id)
				return
			}
			if s.owner.IsValid() {
				_err = backend.NewErrStatus(string(OpCreateContext), backend.StatusInvalidSurface, "%s is already bound", id)
				return
			}
			if s.width < width || s.height < height {
				_err = backend.NewErrStatus(string(OpCreateContext), backend.StatusResolutionNotSupported,
					"%s is %dx%d, smaller than %dx%d", id, s.width, s.height, width, height)
				return
			}
		}
		_ret = types.ContextID(hw.newIDLocked())
		hw.contexts[_ret] = &decodeContext{
			config:   config,
			surfaces: append([]types.SurfaceID(nil), surfaces...),
		}
		for _, id := range surfaces {
			hw.surfaces[id].owner = _ret
		}
	})
	return
}

func (hw *Hardware) DestroyContext(
	ctx context.Context,
	contextID types.ContextID,
) (_err error) {
	hw.locker.Do(ctx, func() {
		if _err = hw.enterLocked(OpDestroyContext); _err != nil {
			return
		}
		c, ok := hw.contexts[contextID]
		if !ok {
			_err = backend.NewErrStatus(string(OpDestroyContext), backend.StatusInvalidContext, "%d", uint32(contextID))
			return
		}
		for _, id := range c.surfaces {
			if s, ok := hw.surfaces[id]; ok {
				s.owner = types.InvalidID
			}
		}
		delete(hw.contexts, contextID)
	})
	return
}
