// Package serialization provides the .cnet format for saving and loading
// network parameters.
//
// The format is a simple binary layout with an integrity checksum:
//
//	Format Structure:
//	  [64 bytes: Fixed header]
//	    0x00-0x03: Magic "CNET"
//	    0x04-0x07: Version (uint32 LE)
//	    0x08-0x0B: Flags (uint32 LE)
//	    0x0C-0x0F: Reserved
//	    0x10-0x17: Header size (uint64 LE)
//	    0x18-0x1F: Data size (uint64 LE)
//	    0x20-0x3F: SHA-256 of the data section
//	  [Header: JSON metadata]
//	  [Padding to a 64-byte boundary]
//	  [Tensor data: little-endian elements in header order]
//
// Tensors are stored in the order they are given, so a network's parameter
// order (W1, b1, W2, ...) survives a round trip. Float32 tensors use 4 bytes
// per element, float64 tensors 8.
//
// Example usage:
//
//	// Save parameters
//	w, err := serialization.NewWriter("params.cnet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Write(tensors, header); err != nil {
//	    log.Fatal(err)
//	}
//	w.Close()
//
//	// Load parameters
//	r, err := serialization.NewReader("params.cnet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	tensors, err := r.ReadAll()
package serialization
