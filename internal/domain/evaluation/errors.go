package evaluation

import (
	"errors"

	"github.com/okian/clipscout/internal/domain/model"
	"github.com/okian/clipscout/internal/domain/vision"
)

// classify maps an inference failure onto the pipeline's error kinds. Only
// transport failures before the service answered count as unavailability.
func classify(op string, err error) error {
	if errors.Is(err, vision.ErrUnreachable) {
		return model.WrapKind(op, model.ErrServiceUnavailable, err)
	}
	return model.WrapKind(op, model.ErrUpstream, err)
}
