package commands_test

import (
	"io"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testTime }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGeoPoint(lat, lng float64) kernel.GeoPoint {
	point, err := kernel.NewGeoPoint(lat, lng, "")
	if err != nil {
		panic(err)
	}
	return point
}

func pendingOrder(id kernel.UUID) *order.Order {
	o, err := order.NewOrder(
		id, "ORD-000042",
		testGeoPoint(40.4168, -3.7038),
		testGeoPoint(40.4530, -3.6883),
		12.50, false, testTime,
	)
	if err != nil {
		panic(err)
	}
	return o
}

func offeredOrder(id, offerID kernel.UUID) *order.Order {
	o := pendingOrder(id)
	if err := o.MarkOffered(offerID); err != nil {
		panic(err)
	}
	return o
}

func idleCourier(id kernel.UUID, lat, lng float64) *courier.Courier {
	c, err := courier.NewCourier(id, "Ana Torres", testGeoPoint(lat, lng), testTime)
	if err != nil {
		panic(err)
	}
	return c
}

func restoredOrder(id kernel.UUID, status order.Status, courierID *kernel.UUID, legalOrValuable bool) *order.Order {
	o, err := order.RestoreOrder(
		id, "ORD-000042", status,
		testGeoPoint(40.4168, -3.7038),
		testGeoPoint(40.4530, -3.6883),
		12.50, legalOrValuable,
		courierID, nil, nil, false, testTime, 3,
	)
	if err != nil {
		panic(err)
	}
	return o
}

func busyCourier(id, activeOrderID kernel.UUID) *courier.Courier {
	c, err := courier.RestoreCourier(
		id, "Ana Torres", courier.Busy, testTime,
		testGeoPoint(40.4170, -3.7040), testTime,
		&activeOrderID, 2,
	)
	if err != nil {
		panic(err)
	}
	return c
}
