// Package bus provides the message queues that connect the router to its
// workers.
//
// Three queues exist at runtime: a distribution queue into which every
// worker publishes, and one outbound queue per worker carrying commands
// and echoes from the router. Queues are multi-producer multi-consumer,
// FIFO per sender, and bounded with an explicit overflow policy so a
// stuck consumer cannot grow memory without limit.
package bus
