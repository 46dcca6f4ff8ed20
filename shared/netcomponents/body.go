package netcomponents

import (
	"fmt"

	"github.com/yohamta/donburi"

	"github.com/apistol78/replica/shared/netconfig"
	"github.com/apistol78/replica/shared/replica"
)

// NetBodyData is the replicated view of a simulated rigid body.
type NetBodyData struct {
	Body     replica.BodyState
	Sleeping bool
}

var NetBody = donburi.NewComponentType[NetBodyData]()

const (
	BodyFieldState = iota
	BodyFieldSleeping
	bodyFieldCount
)

// BodySchema returns the state template of the body domain.
func BodySchema() *replica.StateTemplate {
	return replica.MustStateTemplate(
		replica.NewBodyStateTemplate(netconfig.Replication.LinearError, netconfig.Replication.AngularError),
		replica.NewBooleanTemplate(netconfig.Replication.Debounce),
	)
}

func SampleBody(d *NetBodyData, s *replica.State) {
	s.PackBegin()
	s.Pack(d.Body)
	s.Pack(replica.Boolean(d.Sleeping))
}

func ApplyBody(s *replica.State, d *NetBodyData) error {
	if s.Len() != bodyFieldCount {
		return fmt.Errorf("%w: body state has %d values", replica.ErrSchemaMismatch, s.Len())
	}
	s.UnpackBegin()
	body, err := next[replica.BodyState](s)
	if err != nil {
		return err
	}
	sleeping, err := next[replica.Boolean](s)
	if err != nil {
		return err
	}
	d.Body = body
	d.Sleeping = bool(sleeping)
	return nil
}
