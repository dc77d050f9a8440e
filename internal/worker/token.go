package worker

// Token is a unit of rate budget passed from RateRegulator to SessionDayProbe
// and Downloader. Its value carries no meaning beyond debugging — the
// number is just which emission produced it.
type Token struct {
	Seq int
}
