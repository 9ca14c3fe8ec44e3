// Package htmldom presents a parsed HTML document through the inspection
// boundary, so pages can be captured and rendered like native UI.
//
// Elements map to accessibility roles by ARIA role first and tag second.
// Geometry comes from data-x, data-y, data-width and data-height attributes.
package htmldom
