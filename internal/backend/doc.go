// Package backend talks to the native network-tables bridge.
//
// # Overview
//
// Every interaction with the bridge is a named command with a JSON argument
// object and a JSON reply envelope:
//
//	{"ok": true, "result": ...}
//	{"ok": false, "error": "topic /x already published"}
//
// The package is split into a transport layer and a typed command layer:
//
//   - invoker.go: the Invoker interface, reply envelope, RejectedError
//   - http.go: HTTPInvoker, POST /invoke/<command>
//   - nats.go: NATSInvoker, request/reply on <prefix>.<command>
//   - websocket.go: WSInvoker, ULID-correlated requests over one socket
//   - client.go: Client, Identity and one method per bridge command
//
// # Client Usage
//
//	inv, err := backend.NewHTTPInvoker("127.0.0.1:7487")
//	if err != nil {
//		return err
//	}
//	api := backend.NewClient(inv)
//	id, err := api.StartClient(ctx, addr, 5810, "ntdash")
//
// # Commands
//
//   - start_network_table_client {ip, port, identity}
//   - stop_network_table_client, does_network_table_client_exist,
//     is_network_table_client_stopped {clientId}
//   - publish_topic {clientId, topic, type}
//   - set_topic_value {clientId, topic, value}
//   - unpublish_topic, unsubscribe_from_topic, get_subbed_data {clientId, topic}
//   - subscribe_to_topic {clientId, topic, periodic, all, prefix}
//   - get_subbed_data_with_history {clientId, topic, after}
//
// Subscription data is decoded straight into *objstore.ObjectStore.
//
// # Error Handling
//
// A reply with ok=false becomes a *RejectedError, which matches
// ErrBackendRejected under errors.Is. Transport failures (status codes,
// timeouts, closed sockets) are wrapped with fmt.Errorf and never match it,
// so callers can tell a refused command from an unreachable bridge.
//
// # Thread Safety
//
// All invokers and Client are safe for concurrent use. WSInvoker serializes
// writes and matches replies by request ID, so replies may arrive out of order.
package backend
