/*
Package pairchat implements a two-party rendezvous and relay chat service.

Two clients each supply a shared room id; the first one presenting an id
creates the room and waits, the second is paired with it, and from then on
lines typed by either side are relayed to the other until one disconnects or
sends the leave command. Abandoned rooms are reclaimed after a timeout.

The engine is transport-agnostic: anything that can yield a termio.Channel
(raw TCP with terminal emulation, websockets) can feed the Host.
*/
package pairchat
