// Package internaldefs holds the metric names and bucket bounds shared by
// the goSession exporters.
//
// Both the Prometheus and OTel exporters iterate the same definitions, so a
// renamed metric changes every exporter at once. The package performs no I/O.
package internaldefs
