// Package nad is the convenience API for NAD amplifiers that speak the
// TCP line protocol (C338 and compatible models).
//
// Client wraps a connection.Manager with named operations:
//
//	client, err := nad.NewClient(connection.Config{Host: "192.168.1.121"})
//	if err != nil {
//		return err
//	}
//	client.SetObserver(func(s state.Snapshot) {
//		fmt.Println(nad.ParseStatus(s))
//	})
//	go client.Run(ctx)
//
//	client.PowerOn()
//	client.SelectSource("TV")
//	client.SetVolume(-35.5)
//
// Commands issued while the connection is down are dropped without error;
// the observer's empty snapshot is the signal that the amplifier is
// unreachable.
package nad
