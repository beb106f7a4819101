// Package crilog reads container log files written by CRI runtimes.
//
// Each line is "<RFC3339Nano timestamp> <stdout|stderr> <P|F> <message>".
// The runtime splits long lines into partial (P) entries followed by a final
// (F) one; Tail reassembles them. Files are read backwards from the end in
// chunks, so tailing a large log costs the size of the tail only.
package crilog
