package fanbox_test

import (
	"context"
	"fmt"

	"github.com/tournevent/fancourier/pkg/fanbox"
	"github.com/tournevent/fancourier/pkg/selection"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// The embedding runtime drives the controller from one EventLoop: page
// events, widget callbacks and the controller's own delays all run on it.
func ExampleEventLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := fanbox.NewEventLoop(0)
	go loop.Run(ctx)

	page := newFakePage()
	page.method = "fc_pro_fanbox"
	jar := memJar{}
	ctrl := fanbox.New(page, jar, &fakeWidget{loaded: true}, &fakeHost{}, loop, otelzap.New(zap.NewNop()))

	_ = loop.Do(ctx, ctrl.Start)
	_ = loop.Do(ctx, func() {
		ctrl.OnPickerResult(&selection.PickupPoint{
			Name:    "FANBox Primaverii",
			Address: "Bucuresti, Bucuresti, Str. Primaverii, 10, 011171",
		})
	})

	var name, shippingTo string
	_ = loop.Do(ctx, func() {
		name = selection.Load(jar).Name
		shippingTo = page.destination.Locality
	})
	fmt.Println(name)
	fmt.Println(shippingTo)
	// Output:
	// FANBox Primaverii
	// Bucuresti
}
