// Package telemetry wires OpenTelemetry tracing for econ-calendar.
//
// Setup installs an OTLP/HTTP trace exporter when an endpoint is configured and leaves
// the global no-op provider in place otherwise. InstrumentResty adds one client span per
// outgoing request made through a resty client.
package telemetry
