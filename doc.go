/*
Project: Raport - report cards (raport) of an Indonesian senior high school.

Teachers (guru) enter the grades of their subjects, homeroom teachers (wali) fill the
personality & attendance records and print the reports, the admin keeps the catalogs.
*/
package raport
