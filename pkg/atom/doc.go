// Package atom provides observable value containers and derived views of them.
//
// A root atom owns a value:
//
//	count := atom.New(0)
//	count.Set(1)
//	count.Modify(func(n int) int { return n + 1 })
//
// Derived atoms project one or more sources. Read-only views are built
// with View, ViewKey, ViewLens, ViewPrism, Focus and Combine2/3/All;
// writable views with Lens, LensKey, LensIndex, LensFind and LensPrism:
//
//	type user struct {
//	    Name string `json:"name"`
//	}
//	u := atom.New(user{Name: "ann"})
//	name := atom.LensKey[user, string](u, "name")
//	name.Set("bob") // u.Get().Name == "bob"
//
// # Delivery
//
// Subscribe replays the current value and then delivers every committed
// change synchronously, in subscription order. Each atom keeps a version
// per value; a subscriber never receives a value older than one it has
// seen. When a subscriber writes to an atom it observes, subscribers not
// yet reached by the earlier write only see the final value.
//
// Writes that produce a value equal to the current one (reflect.DeepEqual
// by default, see WithEquals) do not notify.
//
// # Derived atoms
//
// A derived atom computes its value when created. The first subscriber
// connects it to its sources; subscribers share that connection, so the
// projection runs once per source change. The last unsubscribe
// disconnects it. A derived atom without subscribers recomputes on Get.
//
// # Batches
//
// Batch defers notifications of a root atom until the callback returns,
// then commits once. BatchAsync does the same with a callback running on
// its own goroutine. The pending value is committed even when the
// callback fails.
//
// # Concurrency
//
// Atoms follow a single-threaded cooperative model. Internal state is
// guarded so that BatchAsync callbacks and subscribers may run on other
// goroutines, but no lock is held while user code runs.
package atom
