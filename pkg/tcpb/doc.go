// Package tcpb is a client for TeraChem protocol-buffer-style compute
// servers: one persistent TCP connection, one job in flight at a time.
//
// Typical use is a JobBuilder to accumulate the job configuration, a
// Conn dialed to the server, and a Client driving submit, poll and
// result retrieval:
//
//	b := tcpb.NewJobBuilder()
//	b.SetAtoms([]string{"O", "H", "H"})
//	b.SetCharge(0)
//	b.SetSpinMultiplicity(1)
//	b.SetClosedShell(true)
//	b.SetRestricted(true)
//	_ = b.SetMethod("pbe0")
//	b.SetBasis("6-31g")
//
//	req, err := b.Build(tcpb.RunEnergy, geom, tcpb.UnitAngstrom)
//	...
//	res, err := client.Compute(ctx, req, 500*time.Millisecond)
package tcpb
