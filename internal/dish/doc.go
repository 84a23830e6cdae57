// Package dish defines the records that flow through a scan.
//
// A scan starts from a single ScanRequest and produces zero or more Dish
// values. In between, the inference service yields InferredDish records and
// the localizer turns each of them into a LocalizedDish.
//
// # Coordinate System
//
// BoundingBox values are always expressed in the normalized 0-1000 space of
// the original source image, ordered [yMin, xMin, yMax, xMax]. Pixel
// geometry from OCR is converted with FromPixels before it is stored on a
// dish, so downstream consumers never see native pixel coordinates.
//
// # Lifetime
//
// Nothing in this package is cached or shared across scans. A Dish is built
// once at the end of a pipeline run and is immutable from then on.
package dish
