// Package codec owns the cohort binary file format.
//
// Layout, all fields 4 bytes little-endian, no padding:
//
//	int32 student_count
//	repeat student_count:
//	  float32 general_average
//	  int32   student_id
//	  int32   num_courses
//	  int32   age
//	  int32   first_name_len   (terminator included)
//	  bytes   first_name + NUL
//	  int32   last_name_len
//	  bytes   last_name + NUL
//	  repeat num_courses:
//	    int32   course_name_len
//	    bytes   course_name + NUL
//	    float32 coefficient
//	    float32 average
//	    int32   grade_count
//	    float32 grades[grade_count]
//
// There is no version header or checksum. Decode accepts a file only when
// every field validates; otherwise it returns no cohort at all.
package codec
